package lock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/isharak/ballerina/pkg/concurrency/worker"
	rterr "github.com/isharak/ballerina/pkg/error"
	"github.com/isharak/ballerina/pkg/logging"
)

// Stats counts protocol activity since the manager was created.
type Stats struct {
	Acquisitions int64 // guards handed out
	Contended    int64 // entries that required parking
	Cancelled    int64 // acquisitions abandoned while parked
	Releases     int64 // guards released
}

// Manager runs the lock acquisition protocol. One manager is shared by every
// worker in the process; the global order it relies on spans all structures.
type Manager struct {
	parker   worker.Parker
	depGraph *DependencyGraph

	acquisitions atomic.Int64
	contended    atomic.Int64
	cancelled    atomic.Int64
	releases     atomic.Int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithParker replaces the default worker.ChannelParker.
func WithParker(p worker.Parker) Option {
	return func(m *Manager) {
		m.parker = p
	}
}

// NewManager creates a lock manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		parker:   worker.ChannelParker{},
		depGraph: NewDependencyGraph(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire blocks until w holds every field in req and returns the guard that
// releases them.
//
// Fields are taken one at a time in global order; a contended field parks w
// until its owner hands it over. Invalid fields fail the call before any
// entry is touched. If ctx ends while w is parked, w is withdrawn from that
// entry's queue, every field already taken is released, and a CANCELLED error
// is returned. Acquire never returns with a partial set held.
func (m *Manager) Acquire(ctx context.Context, w worker.ID, req *Request) (*Guard, error) {
	if w == worker.None {
		err := rterr.New(rterr.ErrCategoryProgrammer, rterr.CodeInvalidWorker, "acquire requires a worker id")
		err.Hint = "run the caller on a scheduler worker or pass worker.NewID()"
		err.Operation = "Acquire"
		err.Component = "LockManager"
		return nil, err
	}
	if err := req.Err(); err != nil {
		return nil, err
	}

	entries := req.ordered()
	held := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		ok, waiter, err := e.TryAcquire(w)
		if err != nil {
			return nil, m.rollback(w, held, err)
		}
		if ok {
			held = append(held, e)
			continue
		}

		m.contended.Add(1)
		m.depGraph.AddWait(w, e)
		parkErr := m.parker.Park(ctx, waiter.Ready())
		m.depGraph.RemoveWait(w)

		if parkErr != nil {
			if !e.Cancel(waiter) {
				// handed over while we were being cancelled
				held = append(held, e)
			}
			m.cancelled.Add(1)
			cause := rterr.Wrap(parkErr, rterr.CodeCancelled, "Acquire", "LockManager")
			cause.Detail = fmt.Sprintf("%s withdrawn while waiting for %s", w, e.key)
			return nil, m.rollback(w, held, cause)
		}
		held = append(held, e)
	}

	m.acquisitions.Add(1)
	return &Guard{manager: m, worker: w, entries: held}, nil
}

// rollback releases held in reverse order and returns cause joined with any
// release failure.
func (m *Manager) rollback(w worker.ID, held []*Entry, cause error) error {
	errs := []error{cause}
	for i := len(held) - 1; i >= 0; i-- {
		if err := held[i].Release(w); err != nil {
			errs = append(errs, err)
		}
	}
	logging.WithWorker(uint64(w)).Debug("lock acquisition rolled back", "released", len(held), "error", cause)
	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}

// Do runs fn while w holds every field in req. The fields are released on
// every exit path; a panic in fn is re-raised after release.
func (m *Manager) Do(ctx context.Context, w worker.ID, req *Request, fn func() error) (err error) {
	g, err := m.Acquire(ctx, w, req)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := g.Release(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	return fn()
}

// DoContext is Do for the worker carried by ctx (see worker.WithWorker).
func (m *Manager) DoContext(ctx context.Context, req *Request, fn func() error) error {
	return m.Do(ctx, worker.IDFromContext(ctx), req, fn)
}

// WaitGraph exposes the wait-for bookkeeping.
func (m *Manager) WaitGraph() *DependencyGraph {
	return m.depGraph
}

// Stats returns a copy of the activity counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Acquisitions: m.acquisitions.Load(),
		Contended:    m.contended.Load(),
		Cancelled:    m.cancelled.Load(),
		Releases:     m.releases.Load(),
	}
}
