package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/isharak/ballerina/pkg/concurrency/worker"
	rterr "github.com/isharak/ballerina/pkg/error"
	"github.com/isharak/ballerina/pkg/types"
)

func entryOf(t *testing.T, f *fakeStructure, name string) *Entry {
	t.Helper()
	e, err := f.table.Entry(types.IntKind, f.names[name])
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestAcquireRelease(t *testing.T) {
	m := NewManager()
	f := newFake("a", "b")
	w := worker.NewID()

	g, err := m.Acquire(context.Background(), w, NewRequest().AddField(f, "b").AddField(f, "a"))
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if g.Worker() != w {
		t.Errorf("guard worker = %s, want %s", g.Worker(), w)
	}
	if keys := g.Keys(); len(keys) != 2 || keys[0].Index != 0 || keys[1].Index != 1 {
		t.Errorf("guard keys not in lock order: %v", keys)
	}
	if entryOf(t, f, "a").Owner() != w || entryOf(t, f, "b").Owner() != w {
		t.Fatal("fields not owned after Acquire")
	}

	if err := g.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !g.Released() {
		t.Error("Released() = false")
	}
	for _, st := range f.table.Snapshot() {
		if !st.Idle() {
			t.Errorf("entry %s not idle after release: %+v", st.Key, st)
		}
	}

	stats := m.Stats()
	if stats.Acquisitions != 1 || stats.Releases != 1 || stats.Contended != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAcquireRequiresWorker(t *testing.T) {
	m := NewManager()
	f := newFake("a")

	_, err := m.Acquire(context.Background(), worker.None, NewRequest().AddField(f, "a"))
	if !errors.Is(err, rterr.ErrInvalidWorker) {
		t.Fatalf("Acquire with no worker err = %v, want INVALID_WORKER", err)
	}
	if errors.Is(err, rterr.ErrNotOwner) {
		t.Error("missing worker reported as NOT_OWNER")
	}
	if !entryOf(t, f, "a").State().Idle() {
		t.Error("failed Acquire touched the entry")
	}
}

func TestAcquireInvalidRequestTouchesNothing(t *testing.T) {
	m := NewManager()
	f := newFake("a")
	w := worker.NewID()

	req := NewRequest().AddField(f, "a").Add(f, types.IntKind, 3)
	_, err := m.Acquire(context.Background(), w, req)
	if !errors.Is(err, rterr.ErrOutOfBounds) {
		t.Fatalf("err = %v, want OUT_OF_BOUNDS", err)
	}
	if !entryOf(t, f, "a").State().Idle() {
		t.Error("valid field was locked by a rejected request")
	}
}

func TestAcquireReentrantAcrossGuards(t *testing.T) {
	m := NewManager()
	f := newFake("a")
	w := worker.NewID()
	ctx := context.Background()

	outer, err := m.Acquire(ctx, w, NewRequest().AddField(f, "a"))
	if err != nil {
		t.Fatal(err)
	}
	inner, err := m.Acquire(ctx, w, NewRequest().AddField(f, "a"))
	if err != nil {
		t.Fatalf("reentrant Acquire failed: %v", err)
	}
	if st := entryOf(t, f, "a").State(); st.HoldCount != 2 {
		t.Fatalf("HoldCount = %d, want 2", st.HoldCount)
	}

	inner.Release()
	if entryOf(t, f, "a").Owner() != w {
		t.Error("inner release dropped ownership")
	}
	outer.Release()
	if entryOf(t, f, "a").Owner() != worker.None {
		t.Error("entry still owned after outer release")
	}
}

func TestGuardDoubleRelease(t *testing.T) {
	m := NewManager()
	f := newFake("a")
	g, _ := m.Acquire(context.Background(), worker.NewID(), NewRequest().AddField(f, "a"))

	if err := g.Release(); err != nil {
		t.Fatal(err)
	}
	if err := g.Release(); !errors.Is(err, rterr.ErrNotOwner) {
		t.Errorf("second Release err = %v, want NOT_OWNER", err)
	}
	if m.Stats().Releases != 1 {
		t.Errorf("Releases = %d, want 1", m.Stats().Releases)
	}
}

func TestContendedAcquireWaitsForRelease(t *testing.T) {
	parker := newSignalParker()
	m := NewManager(WithParker(parker))
	f := newFake("a")

	holder := worker.New("holder")
	waiter := worker.New("waiter")

	g1, err := m.Acquire(workerCtx(holder), holder.ID, NewRequest().AddField(f, "a"))
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	var g2 *Guard
	go func() {
		var err error
		g2, err = m.Acquire(workerCtx(waiter), waiter.ID, NewRequest().AddField(f, "a"))
		done <- err
	}()

	if id := parker.waitParked(t); id != waiter.ID {
		t.Fatalf("parked worker = %s, want %s", id, waiter.ID)
	}

	graph := m.WaitGraph()
	if key, ok := graph.WaitingOn(waiter.ID); !ok || key != entryOf(t, f, "a").Key() {
		t.Errorf("WaitingOn = %s, %v", key, ok)
	}
	if edges := graph.Edges(); edges[waiter.ID] != holder.ID {
		t.Errorf("edges = %v, want %s -> %s", edges, waiter.ID, holder.ID)
	}
	if graph.HasCycle() {
		t.Error("single wait must not form a cycle")
	}

	if err := g1.Release(); err != nil {
		t.Fatal(err)
	}
	if err := waitErr(t, done); err != nil {
		t.Fatalf("waiter Acquire failed: %v", err)
	}
	if entryOf(t, f, "a").Owner() != waiter.ID {
		t.Error("ownership not handed to the waiter")
	}
	if _, ok := graph.WaitingOn(waiter.ID); ok {
		t.Error("wait edge left behind after wake")
	}
	if waiter.Parks() != 1 {
		t.Errorf("waiter parks = %d, want 1", waiter.Parks())
	}

	g2.Release()
	if m.Stats().Contended != 1 {
		t.Errorf("Contended = %d, want 1", m.Stats().Contended)
	}
}

func TestWakeOrderIsFIFO(t *testing.T) {
	parker := newSignalParker()
	m := NewManager(WithParker(parker))
	f := newFake("a")

	holder := worker.New("holder")
	g, _ := m.Acquire(workerCtx(holder), holder.ID, NewRequest().AddField(f, "a"))

	var mu sync.Mutex
	var order []worker.ID
	var wg sync.WaitGroup

	spawn := func(w *worker.Worker) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Do(workerCtx(w), w.ID, NewRequest().AddField(f, "a"), func() error {
				mu.Lock()
				order = append(order, w.ID)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
		}()
		parker.waitParked(t)
	}

	first := worker.New("first")
	second := worker.New("second")
	third := worker.New("third")
	spawn(first)
	spawn(second)
	spawn(third)

	if st := entryOf(t, f, "a").State(); len(st.Waiters) != 3 {
		t.Fatalf("waiters = %v, want 3", st.Waiters)
	}

	g.Release()
	wg.Wait()

	want := []worker.ID{first.ID, second.ID, third.ID}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

func TestCancelWithdrawsAndRollsBack(t *testing.T) {
	parker := newSignalParker()
	m := NewManager(WithParker(parker))
	f := newFake("a", "b")

	holder := worker.New("holder")
	g, _ := m.Acquire(workerCtx(holder), holder.ID, NewRequest().AddField(f, "b"))

	w := worker.New("cancelled")
	ctx, cancel := context.WithCancel(workerCtx(w))
	done := make(chan error, 1)
	go func() {
		_, err := m.Acquire(ctx, w.ID, NewRequest().AddField(f, "a").AddField(f, "b"))
		done <- err
	}()

	parker.waitParked(t)
	if entryOf(t, f, "a").Owner() != w.ID {
		t.Fatal("first field should be held while parked on the second")
	}
	cancel()

	err := waitErr(t, done)
	if !errors.Is(err, rterr.ErrCancelled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, should wrap context.Canceled", err)
	}

	if !entryOf(t, f, "a").State().Idle() {
		t.Error("partially acquired field not rolled back")
	}
	st := entryOf(t, f, "b").State()
	if st.Owner != holder.ID || st.HoldCount != 1 || len(st.Waiters) != 0 {
		t.Errorf("contended field disturbed: %+v", st)
	}
	if m.Stats().Cancelled != 1 {
		t.Errorf("Cancelled = %d, want 1", m.Stats().Cancelled)
	}

	g.Release()
	if !entryOf(t, f, "b").State().Idle() {
		t.Error("release after cancellation handed the field to a withdrawn waiter")
	}
}

func TestCancelAfterHandOffRollsBackGrantedEntry(t *testing.T) {
	parker := &grantedThenCancelledParker{parked: make(chan worker.ID, 1)}
	m := NewManager(WithParker(parker))
	f := newFake("a", "b")

	holder := worker.New("holder")
	g, err := m.Acquire(workerCtx(holder), holder.ID, NewRequest().AddField(f, "b"))
	if err != nil {
		t.Fatal(err)
	}

	w := worker.New("raced")
	done := make(chan error, 1)
	go func() {
		_, err := m.Acquire(workerCtx(w), w.ID, NewRequest().AddField(f, "a").AddField(f, "b"))
		done <- err
	}()

	select {
	case <-parker.parked:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never parked")
	}
	if err := g.Release(); err != nil {
		t.Fatalf("holder Release failed: %v", err)
	}

	err = waitErr(t, done)
	if !errors.Is(err, rterr.ErrCancelled) {
		t.Fatalf("err = %v, want CANCELLED", err)
	}
	for _, name := range []string{"a", "b"} {
		if st := entryOf(t, f, name).State(); !st.Idle() {
			t.Errorf("entry %s not idle after rollback: %+v", name, st)
		}
	}
	stats := m.Stats()
	if stats.Cancelled != 1 || stats.Acquisitions != 1 {
		t.Errorf("stats = %+v, want one acquisition and one cancellation", stats)
	}
}

func TestAcquireCancelledBeforeParkFastPath(t *testing.T) {
	m := NewManager()
	f := newFake("a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// uncontended fields never park, so a dead context does not matter
	g, err := m.Acquire(ctx, worker.NewID(), NewRequest().AddField(f, "a"))
	if err != nil {
		t.Fatalf("uncontended Acquire failed: %v", err)
	}
	g.Release()
}

func TestDoReleasesOnError(t *testing.T) {
	m := NewManager()
	f := newFake("a")
	boom := errors.New("boom")

	err := m.Do(context.Background(), worker.NewID(), NewRequest().AddField(f, "a"), func() error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if !entryOf(t, f, "a").State().Idle() {
		t.Error("field held after failing body")
	}
}

func TestDoReleasesOnPanic(t *testing.T) {
	m := NewManager()
	f := newFake("a")

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Errorf("recovered %v, want kaboom", r)
			}
		}()
		m.Do(context.Background(), worker.NewID(), NewRequest().AddField(f, "a"), func() error {
			panic("kaboom")
		})
	}()

	if !entryOf(t, f, "a").State().Idle() {
		t.Error("field held after panicking body")
	}
}

func TestDoContextUsesCarriedWorker(t *testing.T) {
	m := NewManager()
	f := newFake("a")
	w := worker.New("ctx")

	err := m.DoContext(workerCtx(w), NewRequest().AddField(f, "a"), func() error {
		if owner := entryOf(t, f, "a").Owner(); owner != w.ID {
			t.Errorf("owner = %s, want %s", owner, w.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := m.DoContext(context.Background(), NewRequest().AddField(f, "a"), func() error { return nil }); err == nil {
		t.Error("DoContext without a worker should fail")
	}
}

func TestConcurrentIncrement(t *testing.T) {
	m := NewManager()
	f := newFake("n")
	counter := 0

	const workers, iterations = 2, 1000
	var wg sync.WaitGroup
	for range workers {
		w := worker.New("inc")
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				err := m.Do(workerCtx(w), w.ID, NewRequest().AddField(f, "n"), func() error {
					counter++
					return nil
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Errorf("counter = %d, want %d", counter, workers*iterations)
	}
}

func TestCrossedOrderNoDeadlock(t *testing.T) {
	m := NewManager()
	left := newFake("x")
	right := newFake("y")
	sum := 0

	done := make(chan struct{})
	var wg sync.WaitGroup
	run := func(build func() *Request) {
		w := worker.New("crossed")
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				if err := m.Do(workerCtx(w), w.ID, build(), func() error {
					sum++
					return nil
				}); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}

	run(func() *Request { return NewRequest().AddField(left, "x").AddField(right, "y") })
	run(func() *Request { return NewRequest().AddField(right, "y").AddField(left, "x") })

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("crossed acquisition deadlocked")
	}
	if sum != 2000 {
		t.Errorf("sum = %d, want 2000", sum)
	}
}

func TestSharedRequestAcrossWorkers(t *testing.T) {
	m := NewManager()
	f := newFake("x", "y")
	// built out of order and never normalized; Acquire must not sort it in place
	req := NewRequest().AddField(f, "y").AddField(f, "x")
	counter := 0

	const workers, iterations = 4, 500
	var wg sync.WaitGroup
	for range workers {
		w := worker.New("shared")
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				err := m.Do(workerCtx(w), w.ID, req, func() error {
					counter++
					return nil
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if counter != workers*iterations {
		t.Errorf("counter = %d, want %d", counter, workers*iterations)
	}
	if req.entries[0].key.Index != 1 || req.entries[1].key.Index != 0 {
		t.Errorf("Acquire reordered the caller's request: %v", []Key{req.entries[0].key, req.entries[1].key})
	}
}
