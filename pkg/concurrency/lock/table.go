package lock

import (
	"github.com/isharak/ballerina/pkg/concurrency/worker"
	rterr "github.com/isharak/ballerina/pkg/error"
	"github.com/isharak/ballerina/pkg/types"
)

// Table holds one Entry per field per kind for a single structure.
type Table struct {
	structure uint64
	entries   [types.KindCount][]*Entry
}

// NewTable creates entries for counts[k] fields of each kind k.
func NewTable(structureID uint64, counts [types.KindCount]int) *Table {
	t := &Table{structure: structureID}
	for _, k := range types.AllKinds {
		n := counts[k]
		if n <= 0 {
			continue
		}
		t.entries[k] = make([]*Entry, n)
		for i := range n {
			t.entries[k][i] = newEntry(Key{Structure: structureID, Kind: k, Index: i})
		}
	}
	return t
}

// Structure returns the id of the owning structure.
func (t *Table) Structure() uint64 {
	return t.structure
}

// Size returns the number of entries of kind k.
func (t *Table) Size(k types.Kind) int {
	if !k.Valid() {
		return 0
	}
	return len(t.entries[k])
}

// Entry returns the entry for (kind, index), failing with OUT_OF_BOUNDS.
func (t *Table) Entry(kind types.Kind, index int) (*Entry, error) {
	size := t.Size(kind)
	if index < 0 || index >= size {
		return nil, rterr.OutOfBounds("LockTable", "Entry", kind, index, size)
	}
	return t.entries[kind][index], nil
}

// Each visits entries in lock order until fn returns false.
func (t *Table) Each(fn func(*Entry) bool) {
	for _, k := range types.AllKinds {
		for _, e := range t.entries[k] {
			if !fn(e) {
				return
			}
		}
	}
}

// Busy reports whether any entry is held. The answer may be stale as soon as
// it is returned; use Close to tear down atomically.
func (t *Table) Busy() bool {
	busy := false
	t.Each(func(e *Entry) bool {
		if e.Owner() != worker.None {
			busy = true
			return false
		}
		return true
	})
	return busy
}

// Snapshot returns the state of every entry in lock order.
func (t *Table) Snapshot() []EntryState {
	var states []EntryState
	t.Each(func(e *Entry) bool {
		states = append(states, e.State())
		return true
	})
	return states
}

// Close marks every entry closed if none is held, so later TryAcquire calls
// fail with STRUCTURE_CLOSED. If any entry is held it fails with
// STRUCTURE_BUSY and leaves the table open. All entry mutexes are taken in
// lock order for the check; no other path holds two entry mutexes at once.
func (t *Table) Close() error {
	var locked []*Entry
	defer func() {
		for _, e := range locked {
			e.mu.Unlock()
		}
	}()

	var busy *Entry
	t.Each(func(e *Entry) bool {
		e.mu.Lock()
		locked = append(locked, e)
		if e.holdCount > 0 {
			busy = e
			return false
		}
		return true
	})

	if busy != nil {
		err := rterr.New(rterr.ErrCategoryLifecycle, rterr.CodeStructureBusy, "structure has held field locks")
		err.Detail = busy.key.String() + " held by " + busy.owner.String()
		err.Hint = "release every guard on the structure before closing it"
		err.Operation = "Close"
		err.Component = "LockTable"
		return err
	}

	for _, e := range locked {
		e.closed = true
	}
	return nil
}
