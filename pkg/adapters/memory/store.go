package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.StateSnapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.StateSnapshot),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, graph string, snapshot *domain.StateSnapshot) error {
	copied := copySnapshot(snapshot)
	copied.Graph = graph

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[graph] = copied
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, graph string) (*domain.StateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[graph]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	// Copy on read so callers can't mutate the stored snapshot.
	return copySnapshot(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, graph string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, graph)
	return nil
}

// List returns the graphs with a stored snapshot.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func copySnapshot(snap *domain.StateSnapshot) *domain.StateSnapshot {
	out := *snap
	out.Nodes = maps.Clone(snap.Nodes)
	if out.Nodes == nil {
		out.Nodes = make(map[string]domain.NodeState)
	}
	return &out
}
