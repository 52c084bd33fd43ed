package ports

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// StateStore persists the state of stateful node instances so that it can
// survive a process restart.
type StateStore interface {
	// Save persists the snapshot of a graph, replacing any previous one.
	Save(ctx context.Context, graph string, snapshot *domain.StateSnapshot) error

	// Load retrieves the snapshot of a graph.
	// Returns domain.ErrStateNotFound if none exists.
	Load(ctx context.Context, graph string) (*domain.StateSnapshot, error)

	// Delete removes the snapshot of a graph. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, graph string) error

	// List returns the names of all graphs with a stored snapshot.
	List(ctx context.Context) ([]string, error)
}
