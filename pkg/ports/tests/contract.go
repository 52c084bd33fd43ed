package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// GraphLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphLoader.
// expected maps graph names to the number of node instances each asset declares.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, expected map[string]int) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for name, nodes := range expected {
			spec, err := loader.Load(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error loading graph %s: %v", name, err)
			}
			if spec.Name != name {
				t.Errorf("graph name mismatch: got %q, want %q", spec.Name, name)
			}
			if len(spec.Nodes) != nodes {
				t.Errorf("graph %s: got %d nodes, want %d", name, len(spec.Nodes), nodes)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-graph")
		if !errors.Is(err, domain.ErrGraphNotFound) {
			t.Errorf("expected ErrGraphNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		names, err := loader.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing graphs: %v", err)
		}
		if len(names) != len(expected) {
			t.Errorf("expected %d graphs, got %d (%v)", len(expected), len(names), names)
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}
		for name := range expected {
			if !lookup[name] {
				t.Errorf("graph %s missing from list", name)
			}
		}
	})
}
