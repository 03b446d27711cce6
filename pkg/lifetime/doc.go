// Package lifetime supplies the ownership hooks a structure calls when a
// reference field changes and when the structure is torn down.
//
// The value model does not collect garbage itself. It reports ownership
// changes to a Manager:
//
//	Retain(r)   - a reference field now points at r
//	Release(r)  - a reference field stopped pointing at r
//	Teardown(r) - r was closed after all of its field locks were released
//
// Noop ignores every hook. Counter keeps per-referent counts and notifies
// observers, which is enough for tests and for runtimes that free values
// once their count reaches zero:
//
//	counter := lifetime.NewCounter()
//	counter.Subscribe(lifetime.ObserverFunc(func(e lifetime.Event) {
//	    if e.Type == lifetime.EventZero {
//	        free(e.Referent)
//	    }
//	}))
package lifetime
