package worker

import (
	"fmt"
	"sync/atomic"
	"time"
)

var workerCounter atomic.Uint64

// ID identifies a worker for lock ownership and reentrancy checks. It carries
// no other state. The zero ID means "no worker".
type ID uint64

// None is the owner recorded on an unheld lock entry.
const None ID = 0

// NewID allocates a process-unique worker id.
func NewID() ID {
	return ID(workerCounter.Add(1))
}

func (id ID) String() string {
	if id == None {
		return "none"
	}
	return fmt.Sprintf("W-%d", uint64(id))
}

// Status represents the scheduling state of a worker
type Status int32

const (
	Runnable Status = iota
	Parked
	Done
)

func (s Status) String() string {
	switch s {
	case Runnable:
		return "RUNNABLE"
	case Parked:
		return "PARKED"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Worker is a logical unit of execution that acquires field locks.
type Worker struct {
	ID        ID
	Name      string
	StartTime time.Time

	status atomic.Int32
	parks  atomic.Int64
}

// New creates a runnable worker with a fresh id.
func New(name string) *Worker {
	return &Worker{
		ID:        NewID(),
		Name:      name,
		StartTime: time.Now(),
	}
}

// Status returns the current scheduling state.
func (w *Worker) Status() Status {
	return Status(w.status.Load())
}

func (w *Worker) setStatus(s Status) {
	w.status.Store(int32(s))
}

// Parks returns how many times the worker has suspended on a contended lock.
func (w *Worker) Parks() int64 {
	return w.parks.Load()
}

func (w *Worker) String() string {
	if w.Name == "" {
		return w.ID.String()
	}
	return fmt.Sprintf("%s(%s)", w.ID, w.Name)
}
