package lock

import (
	"slices"
	"time"

	"github.com/isharak/ballerina/pkg/concurrency/worker"
)

// Waiter is one parked worker in an entry's queue. Ready is closed when the
// entry is handed to the waiter.
type Waiter struct {
	Worker   worker.ID
	Enqueued time.Time

	ready   chan struct{}
	granted bool
}

func newWaiter(w worker.ID) *Waiter {
	return &Waiter{
		Worker:   w,
		Enqueued: time.Now(),
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the waiter owns the entry.
func (w *Waiter) Ready() <-chan struct{} {
	return w.ready
}

// WaitQueue is the FIFO of waiters for a single entry. It is not safe for
// concurrent use; the owning Entry's mutex guards it.
type WaitQueue struct {
	waiters []*Waiter
}

// Push appends w at the tail.
func (q *WaitQueue) Push(w *Waiter) {
	q.waiters = append(q.waiters, w)
}

// PopFront removes and returns the oldest waiter, or nil.
func (q *WaitQueue) PopFront() *Waiter {
	if len(q.waiters) == 0 {
		return nil
	}
	head := q.waiters[0]
	q.waiters[0] = nil
	q.waiters = q.waiters[1:]
	if len(q.waiters) == 0 {
		q.waiters = nil
	}
	return head
}

// Remove deletes w while preserving the order of the remaining waiters.
// It reports whether w was queued.
func (q *WaitQueue) Remove(w *Waiter) bool {
	i := slices.Index(q.waiters, w)
	if i < 0 {
		return false
	}
	q.waiters = slices.Delete(q.waiters, i, i+1)
	if len(q.waiters) == 0 {
		q.waiters = nil
	}
	return true
}

// Find returns the queued waiter for worker id, or nil.
func (q *WaitQueue) Find(id worker.ID) *Waiter {
	i := slices.IndexFunc(q.waiters, func(w *Waiter) bool {
		return w.Worker == id
	})
	if i < 0 {
		return nil
	}
	return q.waiters[i]
}

// Len returns the number of queued waiters.
func (q *WaitQueue) Len() int {
	return len(q.waiters)
}

// Workers returns the queued worker ids, oldest first.
func (q *WaitQueue) Workers() []worker.ID {
	ids := make([]worker.ID, len(q.waiters))
	for i, w := range q.waiters {
		ids[i] = w.Worker
	}
	return ids
}
