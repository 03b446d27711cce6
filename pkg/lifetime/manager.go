package lifetime

import (
	"sync"

	"github.com/isharak/ballerina/pkg/types"
)

// Manager receives ownership notifications from structures.
type Manager interface {
	Retain(r types.Referent)
	Release(r types.Referent)
	Teardown(r types.Referent)
}

// Noop is a Manager that ignores every hook.
type Noop struct{}

func (Noop) Retain(types.Referent)   {}
func (Noop) Release(types.Referent)  {}
func (Noop) Teardown(types.Referent) {}

// EventType classifies lifetime notifications.
type EventType uint8

const (
	EventRetained EventType = iota
	EventReleased
	EventZero
	EventTornDown
)

func (t EventType) String() string {
	switch t {
	case EventRetained:
		return "retained"
	case EventReleased:
		return "released"
	case EventZero:
		return "zero"
	case EventTornDown:
		return "torn-down"
	default:
		return "unknown"
	}
}

// Event describes one ownership change. Count is the count after the change.
type Event struct {
	Referent types.Referent
	Type     EventType
	Count    int
}

// Observer receives lifetime events.
type Observer interface {
	OnLifetimeEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnLifetimeEvent(e Event) { f(e) }

// Counter counts references per RefID. Releasing a referent whose count is
// already zero is ignored; the external collector owns the initial reference.
type Counter struct {
	counts    map[uint64]int
	torn      map[uint64]bool
	mu        sync.Mutex
	observers []Observer
	obsMu     sync.RWMutex
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{
		counts: make(map[uint64]int),
		torn:   make(map[uint64]bool),
	}
}

func (c *Counter) Retain(r types.Referent) {
	if types.IsNullReferent(r) {
		return
	}
	c.mu.Lock()
	c.counts[r.RefID()]++
	n := c.counts[r.RefID()]
	c.mu.Unlock()

	c.notify(Event{Referent: r, Type: EventRetained, Count: n})
}

func (c *Counter) Release(r types.Referent) {
	if types.IsNullReferent(r) {
		return
	}
	c.mu.Lock()
	n, ok := c.counts[r.RefID()]
	if !ok {
		c.mu.Unlock()
		return
	}
	n--
	if n == 0 {
		delete(c.counts, r.RefID())
	} else {
		c.counts[r.RefID()] = n
	}
	c.mu.Unlock()

	c.notify(Event{Referent: r, Type: EventReleased, Count: n})
	if n == 0 {
		c.notify(Event{Referent: r, Type: EventZero})
	}
}

func (c *Counter) Teardown(r types.Referent) {
	if types.IsNullReferent(r) {
		return
	}
	c.mu.Lock()
	c.torn[r.RefID()] = true
	n := c.counts[r.RefID()]
	c.mu.Unlock()

	c.notify(Event{Referent: r, Type: EventTornDown, Count: n})
}

// Count returns the current reference count of r.
func (c *Counter) Count(r types.Referent) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[r.RefID()]
}

// TornDown reports whether Teardown was called for r.
func (c *Counter) TornDown(r types.Referent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torn[r.RefID()]
}

// Subscribe adds an observer for lifetime events.
func (c *Counter) Subscribe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

// notify runs outside c.mu so observers may call back into the counter.
func (c *Counter) notify(e Event) {
	c.obsMu.RLock()
	defer c.obsMu.RUnlock()
	for _, o := range c.observers {
		o.OnLifetimeEvent(e)
	}
}
