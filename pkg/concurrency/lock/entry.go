package lock

import (
	"cmp"
	"fmt"
	"sync"

	"github.com/isharak/ballerina/pkg/concurrency/worker"
	rterr "github.com/isharak/ballerina/pkg/error"
	"github.com/isharak/ballerina/pkg/logging"
	"github.com/isharak/ballerina/pkg/types"
)

// Key names one field of one structure. Keys are totally ordered by
// structure id, then kind, then index; every worker acquires in this order.
type Key struct {
	Structure uint64
	Kind      types.Kind
	Index     int
}

// Compare returns -1, 0 or +1 following the global lock order.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.Structure, other.Structure); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Kind, other.Kind); c != 0 {
		return c
	}
	return cmp.Compare(k.Index, other.Index)
}

func (k Key) String() string {
	return fmt.Sprintf("s%d/%s/%d", k.Structure, k.Kind, k.Index)
}

// EntryState is a point-in-time copy of an entry.
type EntryState struct {
	Key       Key
	Owner     worker.ID
	HoldCount int
	Waiters   []worker.ID
}

// Idle reports whether nobody holds or waits for the entry.
func (s EntryState) Idle() bool {
	return s.Owner == worker.None && len(s.Waiters) == 0
}

// Entry is the lock state of a single field.
type Entry struct {
	key Key

	mu        sync.Mutex
	owner     worker.ID
	holdCount int
	waiters   WaitQueue
	closed    bool
}

func newEntry(key Key) *Entry {
	return &Entry{key: key}
}

// Key returns the field this entry guards.
func (e *Entry) Key() Key {
	return e.key
}

// TryAcquire takes the entry for w if it is free or already owned by w,
// incrementing the hold count. Otherwise w is queued at the tail and the
// returned waiter's Ready channel is closed when ownership is handed to w.
// TryAcquire never blocks. It fails only if the structure has been closed.
func (e *Entry) TryAcquire(w worker.ID) (bool, *Waiter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		err := rterr.New(rterr.ErrCategoryLifecycle, rterr.CodeStructureClosed, "structure is closed")
		err.Detail = e.key.String()
		err.Operation = "TryAcquire"
		err.Component = "LockTable"
		return false, nil, err
	}

	if e.owner == worker.None || e.owner == w {
		e.owner = w
		e.holdCount++
		return true, nil, nil
	}

	if existing := e.waiters.Find(w); existing != nil {
		return false, existing, nil
	}

	waiter := newWaiter(w)
	e.waiters.Push(waiter)
	logging.WithLock(uint64(w), e.key.String()).Debug("lock contended",
		"owner", uint64(e.owner), "queue", e.waiters.Len())
	return false, waiter, nil
}

// Release drops one hold of w. When the last hold goes, the oldest waiter
// becomes owner with a hold count of one and is woken. A release by any
// worker other than the owner fails with NOT_OWNER and changes nothing.
func (e *Entry) Release(w worker.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.owner == worker.None || e.owner != w {
		return rterr.NotOwner("LockTable", "Release",
			fmt.Sprintf("%s released %s owned by %s", w, e.key, e.owner))
	}

	e.holdCount--
	if e.holdCount > 0 {
		return nil
	}

	next := e.waiters.PopFront()
	if next == nil {
		e.owner = worker.None
		return nil
	}

	e.owner = next.Worker
	e.holdCount = 1
	next.granted = true
	close(next.ready)
	logging.WithLock(uint64(w), e.key.String()).Debug("lock handed off", "to", uint64(next.Worker))
	return nil
}

// Cancel withdraws a queued waiter without touching owner or hold count.
// It returns false if the waiter had already been handed the entry; the
// caller then owns it and must Release it.
func (e *Entry) Cancel(waiter *Waiter) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if waiter.granted {
		return false
	}
	if e.waiters.Remove(waiter) {
		logging.WithLock(uint64(waiter.Worker), e.key.String()).Debug("lock wait cancelled")
	}
	return true
}

// Owner returns the current owner, or worker.None.
func (e *Entry) Owner() worker.ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// State returns a copy of the entry's lock state.
func (e *Entry) State() EntryState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return EntryState{
		Key:       e.key,
		Owner:     e.owner,
		HoldCount: e.holdCount,
		Waiters:   e.waiters.Workers(),
	}
}
