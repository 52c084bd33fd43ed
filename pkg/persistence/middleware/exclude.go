package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

type excludeMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewExcludeMiddleware creates a middleware that leaves instances whose id
// matches any pattern out of saved snapshots. Those instances start from
// their initial state after a restore.
func NewExcludeMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &excludeMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *excludeMiddleware) Save(ctx context.Context, graph string, snap *domain.StateSnapshot) error {
	// Copy so the caller's snapshot is left untouched.
	kept := &domain.StateSnapshot{
		Graph:   snap.Graph,
		SavedAt: snap.SavedAt,
		Nodes:   make(map[string]domain.NodeState, len(snap.Nodes)),
	}
	for id, ns := range snap.Nodes {
		if !m.excluded(id) {
			kept.Nodes[id] = ns
		}
	}
	return m.next.Save(ctx, graph, kept)
}

func (m *excludeMiddleware) excluded(id string) bool {
	for _, p := range m.patterns {
		if p.MatchString(id) {
			return true
		}
	}
	return false
}

func (m *excludeMiddleware) Load(ctx context.Context, graph string) (*domain.StateSnapshot, error) {
	return m.next.Load(ctx, graph)
}

func (m *excludeMiddleware) Delete(ctx context.Context, graph string) error {
	return m.next.Delete(ctx, graph)
}

func (m *excludeMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
