// Package annotations provides a low-overhead event system for tracing how a
// fact database is built, loaded and queried.
package annotations

import (
	"sync"
	"time"
)

// Event name constants following hierarchical naming pattern
const (
	// Build lifecycle
	DatabaseBuilt          = "db/built"
	IndexMaterialized      = "index/materialized"
	IndexMasterSynthesized = "index/master-synthesized"

	// Fact traffic
	FactsInserted = "facts/inserted"
	IndexLookup   = "index/lookup"
	DatabaseClear = "db/cleared"

	// Parallel loading
	LoadBegin    = "load/begin"
	LoadComplete = "load/complete"

	// Errors
	ErrorContract = "error/contract"
	ErrorBackend  = "error/backend"
)

// Event represents a single annotation event.
type Event struct {
	Name    string                 // Event name using hierarchical constants above
	Start   time.Time              // Start timestamp
	End     time.Time              // End timestamp
	Latency time.Duration          // Duration (End - Start)
	Data    map[string]interface{} // Event-specific data keyed by dotted names
}

// Handler processes annotation events as they occur.
type Handler func(event Event)

// Collector accumulates events and forwards them to a handler.
// A nil *Collector is valid and records nothing.
type Collector struct {
	enabled bool
	handler Handler
	keep    bool
	events  []Event
	mu      sync.Mutex
}

// NewCollector creates a collector that forwards every event to handler
// and retains it for Events.
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled: true,
		handler: handler,
		keep:    true,
		events:  make([]Event, 0, 64),
	}
}

// NewStreamingCollector forwards events to handler without retaining them.
// Long-running loads use it so memory stays flat.
func NewStreamingCollector(handler Handler) *Collector {
	return &Collector{
		enabled: handler != nil,
		handler: handler,
	}
}

// Enabled reports whether events are recorded at all. Callers check it
// before building event data on hot paths.
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// Add records a new event.
// Thread-safe for concurrent access.
func (c *Collector) Add(event Event) {
	if !c.Enabled() {
		return
	}

	if c.keep {
		c.mu.Lock()
		c.events = append(c.events, event)
		c.mu.Unlock()
	}

	// Call handler outside the lock to avoid deadlocks
	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records an event that started at start and ends now.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if !c.Enabled() {
		return
	}

	end := time.Now()
	c.Add(Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	})
}

// Events returns a copy of all retained events.
func (c *Collector) Events() []Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	eventsCopy := make([]Event, len(c.events))
	copy(eventsCopy, c.events)
	return eventsCopy
}

// Count returns how many retained events carry name.
func (c *Collector) Count(name string) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Reset clears retained events. The handler is kept.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}

// Tee returns a Handler that passes every event to each non-nil handler in turn.
func Tee(handlers ...Handler) Handler {
	var live []Handler
	for _, h := range handlers {
		if h != nil {
			live = append(live, h)
		}
	}
	return func(event Event) {
		for _, h := range live {
			h(event)
		}
	}
}
