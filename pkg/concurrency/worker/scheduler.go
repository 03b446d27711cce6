package worker

import (
	"context"
	"fmt"

	"github.com/isharak/ballerina/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// Options configures a Scheduler.
type Options struct {
	// MaxParallel bounds how many workers run at once. Zero or negative means
	// unbounded. Spawn blocks while the limit is reached.
	MaxParallel int

	// Registry receives every spawned worker. A fresh registry is used if nil.
	// Finished workers stay registered so their counters can be read after
	// Wait; long-lived schedulers should call Registry.Prune.
	Registry *Registry
}

// Func is the body of a worker. ctx carries the worker (see FromContext) and
// is cancelled when any sibling worker fails.
type Func func(ctx context.Context, w *Worker) error

// Scheduler runs workers as goroutines in an errgroup. The first worker error
// cancels the shared context, which withdraws every parked sibling from its
// lock queue.
type Scheduler struct {
	group    *errgroup.Group
	ctx      context.Context
	registry *Registry
}

// NewScheduler creates a scheduler whose workers inherit ctx.
func NewScheduler(ctx context.Context, opts Options) *Scheduler {
	group, gctx := errgroup.WithContext(ctx)
	if opts.MaxParallel > 0 {
		group.SetLimit(opts.MaxParallel)
	}

	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	return &Scheduler{
		group:    group,
		ctx:      gctx,
		registry: registry,
	}
}

// Spawn starts fn on a new worker and returns that worker.
func (s *Scheduler) Spawn(name string, fn Func) *Worker {
	w := New(name)
	// ids are fresh, so Register cannot collide
	_ = s.registry.Register(w)

	s.group.Go(func() (err error) {
		log := logging.WithWorker(uint64(w.ID))
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("worker %s panicked: %v", w, r)
			}
			w.setStatus(Done)
			if err != nil {
				log.Debug("worker failed", "name", w.Name, "error", err)
			}
		}()

		return fn(WithWorker(s.ctx, w), w)
	})
	return w
}

// Wait blocks until every spawned worker returns and reports the first error.
func (s *Scheduler) Wait() error {
	return s.group.Wait()
}

// Registry exposes the workers this scheduler has spawned.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Context is the group context shared by all workers.
func (s *Scheduler) Context() context.Context {
	return s.ctx
}
