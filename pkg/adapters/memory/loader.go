package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// Loader implements ports.GraphLoader using an in-memory map.
// Safe for concurrent use.
type Loader struct {
	mu     sync.RWMutex
	graphs map[string]domain.GraphSpec
}

// NewLoader creates a loader serving the given graphs by name.
// Graphs with an empty name are rejected.
func NewLoader(specs ...domain.GraphSpec) (*Loader, error) {
	l := &Loader{graphs: make(map[string]domain.GraphSpec, len(specs))}
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("graph missing name")
		}
		l.graphs[s.Name] = s
	}
	return l, nil
}

// Load returns a graph by name.
func (l *Loader) Load(ctx context.Context, name string) (domain.GraphSpec, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.graphs[name]
	if !ok {
		return domain.GraphSpec{}, fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)
	}
	return spec, nil
}

// List returns the graph names in lexical order.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.graphs))
	for name := range l.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Put adds or replaces a graph.
func (l *Loader) Put(spec domain.GraphSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.graphs[spec.Name] = spec
}
