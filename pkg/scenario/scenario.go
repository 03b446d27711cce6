// Package scenario runs named workloads against shared structures and checks
// that the lock protocol kept them consistent.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/isharak/ballerina/pkg/concurrency/lock"
	"github.com/isharak/ballerina/pkg/concurrency/worker"
	"github.com/isharak/ballerina/pkg/lifetime"
	"github.com/isharak/ballerina/pkg/logging"
	"github.com/isharak/ballerina/pkg/structure"
)

const (
	DefaultWorkers       = 2
	DefaultIterations    = 1000
	DefaultSnapshotEvery = 100 * time.Millisecond
)

// Config selects and sizes a scenario. Zero fields take the defaults above.
type Config struct {
	Name        string
	Workers     int
	Iterations  int
	MaxParallel int

	// Observer receives lock-table snapshots while the scenario runs and one
	// final snapshot after every worker has finished. It is called from a
	// single goroutine.
	Observer      func(Snapshot)
	SnapshotEvery time.Duration

	// Manager runs the lock protocol. A fresh manager is used if nil; pass
	// one in to accumulate Stats across runs.
	Manager *lock.Manager
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	if c.SnapshotEvery <= 0 {
		c.SnapshotEvery = DefaultSnapshotEvery
	}
	return c
}

// Result reports what a scenario observed.
type Result struct {
	Name       string
	Workers    int
	Iterations int
	Expected   int64
	Actual     int64
	Duration   time.Duration
	Parks      int64
	Stats      lock.Stats
	Final      Snapshot
}

// OK reports whether the invariant checked by the scenario held.
func (r Result) OK() bool {
	return r.Expected == r.Actual
}

func (r Result) String() string {
	status := "ok"
	if !r.OK() {
		status = "VIOLATED"
	}
	return fmt.Sprintf("%s: %d workers x %d iterations, expected %d, got %d (%s) in %s, %d parks",
		r.Name, r.Workers, r.Iterations, r.Expected, r.Actual, status, r.Duration.Round(time.Microsecond), r.Parks)
}

// plan is a prepared scenario instance.
type plan struct {
	structures []*structure.Structure
	expected   int64

	// step performs iteration i of worker n.
	step func(ctx context.Context, m *lock.Manager, n, i int) error

	// measure runs after every worker returned.
	measure func() (int64, error)
}

type definition struct {
	description string
	build       func(cfg Config, lt lifetime.Manager) (*plan, error)
}

var registry = map[string]definition{
	"counter": {
		description: "workers increment one shared int field",
		build:       buildCounter,
	},
	"crossed": {
		description: "workers lock two structures in opposite orders",
		build:       buildCrossed,
	},
	"transfer": {
		description: "workers move amounts between two accounts; the total is conserved",
		build:       buildTransfer,
	},
}

// Names lists the registered scenarios.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Describe returns the one-line description of a scenario.
func Describe(name string) (string, bool) {
	d, ok := registry[name]
	return d.description, ok
}

// Run executes the named scenario to completion. The returned error reports
// setup failures and worker errors; an invariant violation is reported
// through Result.OK.
func Run(ctx context.Context, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	def, ok := registry[cfg.Name]
	if !ok {
		return Result{}, fmt.Errorf("unknown scenario %q (have %v)", cfg.Name, Names())
	}

	lt := lifetime.NewCounter()
	p, err := def.build(cfg, lt)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", cfg.Name, err)
	}

	log := logging.WithComponent("scenario")
	log.Info("scenario started", "name", cfg.Name, "workers", cfg.Workers, "iterations", cfg.Iterations)

	m := cfg.Manager
	if m == nil {
		m = lock.NewManager()
	}
	sched := worker.NewScheduler(ctx, worker.Options{MaxParallel: cfg.MaxParallel})

	stopObserver := func() {}
	if cfg.Observer != nil {
		stopObserver = observe(ctx, m, p.structures, cfg)
	}

	start := time.Now()
	for n := range cfg.Workers {
		sched.Spawn(fmt.Sprintf("%s-%d", cfg.Name, n), func(ctx context.Context, w *worker.Worker) error {
			for i := range cfg.Iterations {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := p.step(ctx, m, n, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	runErr := sched.Wait()
	elapsed := time.Since(start)
	stopObserver()

	res := Result{
		Name:       cfg.Name,
		Workers:    cfg.Workers,
		Iterations: cfg.Iterations,
		Expected:   p.expected,
		Duration:   elapsed,
		Stats:      m.Stats(),
	}
	for _, w := range sched.Registry().Active() {
		log.Warn("worker still active after wait", "worker", w.String())
	}
	for _, w := range sched.Registry().All() {
		res.Parks += w.Parks()
	}

	// the final snapshot is taken before teardown so values are still readable
	final, snapErr := take(context.Background(), m, p.structures)
	res.Final = final
	if cfg.Observer != nil && snapErr == nil {
		cfg.Observer(final)
	}

	if runErr != nil {
		return res, fmt.Errorf("scenario %s: %w", cfg.Name, runErr)
	}

	actual, err := p.measure()
	if err != nil {
		return res, fmt.Errorf("scenario %s: measure: %w", cfg.Name, err)
	}
	res.Actual = actual

	var closeErrs []error
	for _, s := range p.structures {
		closeErrs = append(closeErrs, s.Close())
	}
	if err := errors.Join(closeErrs...); err != nil {
		return res, fmt.Errorf("scenario %s: teardown: %w", cfg.Name, err)
	}
	for _, s := range p.structures {
		if n := lt.Count(s); n != 0 {
			return res, fmt.Errorf("scenario %s: %s still has %d references after teardown", cfg.Name, s, n)
		}
	}

	log.Info("scenario finished", "name", cfg.Name, "ok", res.OK(), "duration", elapsed,
		"contended", res.Stats.Contended, "parks", res.Parks)
	return res, nil
}

// observe starts a goroutine delivering snapshots every cfg.SnapshotEvery
// and returns a function that stops it and waits for it.
func observe(ctx context.Context, m *lock.Manager, structures []*structure.Structure, cfg Config) func() {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.SnapshotEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap, err := take(ctx, m, structures)
				if err != nil {
					// cancelled mid-acquire at shutdown
					return
				}
				cfg.Observer(snap)
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
