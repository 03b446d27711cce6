package worker

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Registry tracks live workers by id.
type Registry struct {
	workers map[ID]*Worker
	mutex   sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		workers: make(map[ID]*Worker),
	}
}

// Register adds w. Registering the same id twice is an error.
func (r *Registry) Register(w *Worker) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.workers[w.ID]; exists {
		return fmt.Errorf("worker %s already registered", w.ID)
	}
	r.workers[w.ID] = w
	return nil
}

// Get retrieves a worker by id
func (r *Registry) Get(id ID) (*Worker, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	w, exists := r.workers[id]
	if !exists {
		return nil, fmt.Errorf("worker %s not found", id)
	}
	return w, nil
}

// Remove removes a worker from the registry
func (r *Registry) Remove(id ID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.workers, id)
}

// All returns every registered worker ordered by id.
func (r *Registry) All() []*Worker {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	all := make([]*Worker, 0, len(r.workers))
	for _, w := range r.workers {
		all = append(all, w)
	}
	slices.SortFunc(all, func(a, b *Worker) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return all
}

// Active returns every registered worker that has not finished, ordered by id.
func (r *Registry) Active() []*Worker {
	var active []*Worker
	for _, w := range r.All() {
		if w.Status() != Done {
			active = append(active, w)
		}
	}
	return active
}

// Prune removes every finished worker and returns how many were removed.
func (r *Registry) Prune() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	removed := 0
	for id, w := range r.workers {
		if w.Status() == Done {
			delete(r.workers, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of registered workers
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.workers)
}
