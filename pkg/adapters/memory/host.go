package memory

import (
	"context"
	"sync"

	"github.com/aretw0/tendril/pkg/schema"
)

// Emission is one value emitted on a topic.
type Emission struct {
	Topic string
	Value any
}

// Host implements ports.Host over an in-memory world.
// Safe for concurrent use.
type Host struct {
	mu       sync.RWMutex
	world    map[schema.EntityRef]map[string]any
	emitted  []Emission
	failWith error
}

// NewHost creates an empty world.
func NewHost() *Host {
	return &Host{world: make(map[schema.EntityRef]map[string]any)}
}

// Get reads a component value.
func (h *Host) Get(ctx context.Context, entity schema.EntityRef, component string) (any, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.failWith != nil {
		return nil, false, h.failWith
	}
	v, ok := h.world[entity][component]
	return v, ok, nil
}

// Set writes a component value.
func (h *Host) Set(ctx context.Context, entity schema.EntityRef, component string, value any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failWith != nil {
		return h.failWith
	}
	if h.world[entity] == nil {
		h.world[entity] = make(map[string]any)
	}
	h.world[entity][component] = value
	return nil
}

// Emit records a value on a topic.
func (h *Host) Emit(ctx context.Context, topic string, value any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failWith != nil {
		return h.failWith
	}
	h.emitted = append(h.emitted, Emission{Topic: topic, Value: value})
	return nil
}

// Emitted returns the values emitted on topic, in order.
func (h *Host) Emitted(topic string) []any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []any
	for _, e := range h.emitted {
		if e.Topic == topic {
			out = append(out, e.Value)
		}
	}
	return out
}

// Emissions returns every emission, in order.
func (h *Host) Emissions() []Emission {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Emission(nil), h.emitted...)
}

// Reset clears the emission log.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitted = nil
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (h *Host) FailWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failWith = err
}
