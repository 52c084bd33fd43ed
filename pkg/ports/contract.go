package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	graph := "contract-graph-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.NewStateSnapshot(graph)
		snap.Nodes["counter"] = domain.NodeState{Type: "counter", State: 3.0}
		snap.Nodes["toggle"] = domain.NodeState{Type: "toggle", State: true}

		err := store.Save(ctx, graph, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, graph)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, graph, loaded.Graph)
		require.Len(t, loaded.Nodes, 2)
		assert.Equal(t, "counter", loaded.Nodes["counter"].Type)
		// JSON-backed stores decode numbers as float64.
		assert.EqualValues(t, 3, loaded.Nodes["counter"].State)
		assert.Equal(t, true, loaded.Nodes["toggle"].State)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		snap := domain.NewStateSnapshot(graph)
		snap.Nodes["counter"] = domain.NodeState{Type: "counter", State: 4.0}
		require.NoError(t, store.Save(ctx, graph, snap))

		loaded, err := store.Load(ctx, graph)
		require.NoError(t, err)
		assert.Len(t, loaded.Nodes, 1)
		assert.EqualValues(t, 4, loaded.Nodes["counter"].State)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+graph)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("List", func(t *testing.T) {
		other := graph + "-other"
		require.NoError(t, store.Save(ctx, other, domain.NewStateSnapshot(other)))
		defer func() { _ = store.Delete(ctx, other) }()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, graph)
		assert.Contains(t, names, other)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, graph)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, graph)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")

		assert.NoError(t, store.Delete(ctx, graph), "Delete of a missing snapshot is not an error")
	})
}

// RunHostContract verifies the read/write half of a Host implementation.
// Emission is backend specific and is tested by each adapter.
func RunHostContract(t *testing.T, host Host) {
	ctx := context.Background()
	entity := schema.EntityRef("contract-entity-" + time.Now().Format("150405.000"))

	t.Run("Get Missing", func(t *testing.T) {
		_, ok, err := host.Get(ctx, entity, "health")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, host.Set(ctx, entity, "health", 10.0))
		require.NoError(t, host.Set(ctx, entity, "name", "door"))

		v, ok, err := host.Get(ctx, entity, "health")
		require.NoError(t, err)
		require.True(t, ok)
		assert.EqualValues(t, 10, v)

		v, ok, err = host.Get(ctx, entity, "name")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "door", v)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, host.Set(ctx, entity, "health", 7.0))
		v, _, err := host.Get(ctx, entity, "health")
		require.NoError(t, err)
		assert.EqualValues(t, 7, v)
	})

	t.Run("Emit", func(t *testing.T) {
		assert.NoError(t, host.Emit(ctx, "contract", "hello"))
	})
}
