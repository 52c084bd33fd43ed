package ports

import (
	"context"

	"github.com/aretw0/tendril/pkg/schema"
)

// Host is the capability handle that effectful nodes use to touch the world.
// Errors returned by a Host are reported to the event as ErrHostCapability.
type Host interface {
	// Get reads a component value of an entity. ok is false when the entity
	// has no such component.
	Get(ctx context.Context, entity schema.EntityRef, component string) (value any, ok bool, err error)

	// Set writes a component value of an entity.
	Set(ctx context.Context, entity schema.EntityRef, component string, value any) error

	// Emit publishes a value on a topic (logs, sounds, UI, network...).
	Emit(ctx context.Context, topic string, value any) error
}

// EventSink accepts re-entrant events. Events enqueued while the queue is
// being drained are deferred to the next drain.
type EventSink interface {
	Enqueue(entry string, payload map[string]any) string
}

// Variables is the manager-owned global variable store.
type Variables interface {
	Var(name string) (any, bool)
	SetVar(name string, value any)
}
