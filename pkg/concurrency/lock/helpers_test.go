package lock

import (
	"context"
	"testing"
	"time"

	"github.com/isharak/ballerina/pkg/concurrency/worker"
	"github.com/isharak/ballerina/pkg/types"
)

var nextTestStructure uint64 = 1000

// fakeStructure is a Lockable with named int fields.
type fakeStructure struct {
	id    uint64
	table *Table
	names map[string]int
}

func newFake(names ...string) *fakeStructure {
	nextTestStructure++
	var counts [types.KindCount]int
	counts[types.IntKind] = len(names)
	f := &fakeStructure{
		id:    nextTestStructure,
		table: NewTable(nextTestStructure, counts),
		names: make(map[string]int, len(names)),
	}
	for i, n := range names {
		f.names[n] = i
	}
	return f
}

func (f *fakeStructure) ID() uint64        { return f.id }
func (f *fakeStructure) LockTable() *Table { return f.table }

func (f *fakeStructure) LookupField(name string) (types.Kind, int, bool) {
	i, ok := f.names[name]
	return types.IntKind, i, ok
}

// signalParker reports each park on parked before blocking.
type signalParker struct {
	parked chan worker.ID
	inner  worker.ChannelParker
}

func newSignalParker() *signalParker {
	return &signalParker{parked: make(chan worker.ID, 64)}
}

func (p *signalParker) Park(ctx context.Context, ready <-chan struct{}) error {
	p.parked <- worker.IDFromContext(ctx)
	return p.inner.Park(ctx, ready)
}

func (p *signalParker) waitParked(t *testing.T) worker.ID {
	t.Helper()
	select {
	case id := <-p.parked:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a worker to park")
		return worker.None
	}
}

// grantedThenCancelledParker waits for the hand-off and then reports a
// cancellation, as if ctx ended at the same instant the entry was granted.
type grantedThenCancelledParker struct {
	parked chan worker.ID
}

func (p *grantedThenCancelledParker) Park(ctx context.Context, ready <-chan struct{}) error {
	p.parked <- worker.IDFromContext(ctx)
	<-ready
	return context.Canceled
}

func workerCtx(w *worker.Worker) context.Context {
	return worker.WithWorker(context.Background(), w)
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for acquisition")
		return nil
	}
}
