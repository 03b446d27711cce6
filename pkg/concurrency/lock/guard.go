package lock

import (
	"errors"
	"sync/atomic"

	"github.com/isharak/ballerina/pkg/concurrency/worker"
	rterr "github.com/isharak/ballerina/pkg/error"
)

// Guard represents a held lock request. It must be released exactly once by
// the worker that acquired it.
type Guard struct {
	manager  *Manager
	worker   worker.ID
	entries  []*Entry
	released atomic.Bool
}

// Release drops the guard's holds in reverse acquisition order, waking at
// most one waiter per entry. A second call fails with NOT_OWNER.
func (g *Guard) Release() error {
	if !g.released.CompareAndSwap(false, true) {
		return rterr.NotOwner("LockManager", "Release", "guard of "+g.worker.String()+" already released")
	}

	var errs []error
	for i := len(g.entries) - 1; i >= 0; i-- {
		if err := g.entries[i].Release(g.worker); err != nil {
			errs = append(errs, err)
		}
	}
	g.manager.releases.Add(1)
	return errors.Join(errs...)
}

// Worker returns the owning worker.
func (g *Guard) Worker() worker.ID {
	return g.worker
}

// Keys returns the held fields in acquisition order.
func (g *Guard) Keys() []Key {
	keys := make([]Key, len(g.entries))
	for i, e := range g.entries {
		keys[i] = e.key
	}
	return keys
}

// Released reports whether Release has been called.
func (g *Guard) Released() bool {
	return g.released.Load()
}
