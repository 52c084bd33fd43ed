package ports

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// GraphLoader defines how the host retrieves graph assets.
// This allows the storage layer (Loam, file system, memory) to be decoupled.
type GraphLoader interface {
	// Load returns the raw graph description by name.
	// It returns domain.ErrGraphNotFound if no asset has that name.
	Load(ctx context.Context, name string) (domain.GraphSpec, error)

	// List returns the names of all available graphs.
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is used by hot reload.
type Watchable interface {
	// Watch returns a channel that receives the name of each graph whose asset changed.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
