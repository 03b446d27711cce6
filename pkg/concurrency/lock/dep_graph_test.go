package lock

import (
	"slices"
	"testing"

	"github.com/isharak/ballerina/pkg/concurrency/worker"
	"github.com/isharak/ballerina/pkg/types"
)

func ownedEntry(index int, owner worker.ID) *Entry {
	e := newEntry(Key{Structure: 1, Kind: types.IntKind, Index: index})
	e.TryAcquire(owner)
	return e
}

func TestNewDependencyGraph(t *testing.T) {
	dg := NewDependencyGraph()
	if dg.waiting == nil {
		t.Fatal("waiting map not initialized")
	}
	if dg.HasCycle() {
		t.Error("empty graph has no cycle")
	}
}

func TestAddRemoveWait(t *testing.T) {
	dg := NewDependencyGraph()
	e := ownedEntry(0, 1)

	dg.AddWait(2, e)
	if key, ok := dg.WaitingOn(2); !ok || key != e.Key() {
		t.Errorf("WaitingOn(2) = %s, %v", key, ok)
	}
	if edges := dg.Edges(); edges[2] != 1 {
		t.Errorf("edges = %v, want 2 -> 1", edges)
	}

	dg.RemoveWait(2)
	if _, ok := dg.WaitingOn(2); ok {
		t.Error("wait still recorded after RemoveWait")
	}
	if len(dg.Edges()) != 0 {
		t.Error("edges left after RemoveWait")
	}
}

func TestEdgesFollowHandOff(t *testing.T) {
	dg := NewDependencyGraph()
	e := ownedEntry(0, 1)
	e.TryAcquire(2)
	dg.AddWait(2, e)

	e.Release(1)
	if edges := dg.Edges(); len(edges) != 0 {
		t.Errorf("edge to the previous holder survived hand-off: %v", edges)
	}
}

func TestHasCycleSimple(t *testing.T) {
	dg := NewDependencyGraph()
	e1 := ownedEntry(0, 1)
	e2 := ownedEntry(1, 2)

	dg.AddWait(1, e2)
	if dg.HasCycle() {
		t.Error("one edge is not a cycle")
	}

	dg.AddWait(2, e1)
	if !dg.HasCycle() {
		t.Error("expected 1 -> 2 -> 1 cycle")
	}
}

func TestHasCycleChain(t *testing.T) {
	dg := NewDependencyGraph()
	e1 := ownedEntry(0, 1)
	e2 := ownedEntry(1, 2)
	e3 := ownedEntry(2, 3)

	dg.AddWait(4, e3)
	dg.AddWait(3, e2)
	dg.AddWait(2, e1)
	if dg.HasCycle() {
		t.Error("chain 4 -> 3 -> 2 -> 1 has no cycle")
	}

	dg.AddWait(1, e3)
	if !dg.HasCycle() {
		t.Error("expected cycle after 1 waits on 3")
	}
}

func TestGetWaitingWorkers(t *testing.T) {
	dg := NewDependencyGraph()
	e := ownedEntry(0, 1)
	dg.AddWait(2, e)
	dg.AddWait(3, e)

	got := dg.GetWaitingWorkers()
	slices.Sort(got)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("GetWaitingWorkers = %v, want [2 3]", got)
	}
}
