package lock

import (
	"sync"

	"github.com/isharak/ballerina/pkg/concurrency/worker"
)

// DependencyGraph tracks which entry each parked worker is waiting for. The
// holder side of an edge is read from the entry when the graph is queried,
// so a hand-off never leaves a stale worker-to-worker edge behind.
//
// Under the global lock order the graph can never contain a cycle. The graph
// exists for inspection and for tests; queries read each entry separately and
// are not an atomic snapshot while workers are moving.
type DependencyGraph struct {
	waiting map[worker.ID]*Entry
	mutex   sync.RWMutex
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		waiting: make(map[worker.ID]*Entry),
	}
}

// AddWait records that w is parked on e.
func (dg *DependencyGraph) AddWait(w worker.ID, e *Entry) {
	dg.mutex.Lock()
	defer dg.mutex.Unlock()
	dg.waiting[w] = e
}

// RemoveWait clears w's wait edge.
func (dg *DependencyGraph) RemoveWait(w worker.ID) {
	dg.mutex.Lock()
	defer dg.mutex.Unlock()
	delete(dg.waiting, w)
}

// WaitingOn returns the key w is parked on, if any.
func (dg *DependencyGraph) WaitingOn(w worker.ID) (Key, bool) {
	dg.mutex.RLock()
	defer dg.mutex.RUnlock()
	e, ok := dg.waiting[w]
	if !ok {
		return Key{}, false
	}
	return e.key, true
}

// Edges returns the current waiter to holder pairs. A waiter whose entry was
// already handed to it is skipped.
func (dg *DependencyGraph) Edges() map[worker.ID]worker.ID {
	dg.mutex.RLock()
	defer dg.mutex.RUnlock()

	edges := make(map[worker.ID]worker.ID, len(dg.waiting))
	for w, e := range dg.waiting {
		holder := e.Owner()
		if holder == worker.None || holder == w {
			continue
		}
		edges[w] = holder
	}
	return edges
}

// HasCycle reports whether the wait-for relation contains a cycle. Each worker
// waits on at most one entry, so every node has at most one outgoing edge and
// following the chain from each waiter is enough.
func (dg *DependencyGraph) HasCycle() bool {
	edges := dg.Edges()

	done := make(map[worker.ID]bool, len(edges))
	for start := range edges {
		if done[start] {
			continue
		}
		onPath := make(map[worker.ID]bool)
		for w := start; ; {
			if onPath[w] {
				return true
			}
			if done[w] {
				break
			}
			onPath[w] = true
			next, ok := edges[w]
			if !ok {
				break
			}
			w = next
		}
		for w := range onPath {
			done[w] = true
		}
	}
	return false
}

// GetWaitingWorkers returns the workers currently parked on an entry.
func (dg *DependencyGraph) GetWaitingWorkers() []worker.ID {
	dg.mutex.RLock()
	defer dg.mutex.RUnlock()

	waiters := make([]worker.ID, 0, len(dg.waiting))
	for w := range dg.waiting {
		waiters = append(waiters, w)
	}
	return waiters
}
