package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcludeMiddleware(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewExcludeMiddleware([]string{"^tmp_", "cooldown$"})
	require.NoError(t, err)
	store := mw(underlying)

	snap := domain.NewStateSnapshot("arena")
	snap.Nodes["score"] = domain.NodeState{Type: "counter", State: 10.0}
	snap.Nodes["tmp_combo"] = domain.NodeState{Type: "counter", State: 3.0}
	snap.Nodes["dash_cooldown"] = domain.NodeState{Type: "latch", State: true}

	require.NoError(t, store.Save(ctx, "arena", snap))
	assert.Len(t, snap.Nodes, 3, "caller snapshot must not change")

	loaded, err := store.Load(ctx, "arena")
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.NodeState{
		"score": {Type: "counter", State: 10.0},
	}, loaded.Nodes)
}

func TestExcludeMiddleware_BadPattern(t *testing.T) {
	_, err := middleware.NewExcludeMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	exclude, err := middleware.NewExcludeMiddleware([]string{"^tmp_"})
	require.NoError(t, err)
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, exclude, encrypt)

	snap := domain.NewStateSnapshot("g")
	snap.Nodes["keep"] = domain.NodeState{Type: "toggle", State: true}
	snap.Nodes["tmp_x"] = domain.NodeState{Type: "toggle", State: false}
	require.NoError(t, store.Save(ctx, "g", snap))

	raw, err := underlying.Load(ctx, "g")
	require.NoError(t, err)
	assert.Contains(t, raw.Nodes, middleware.EnvelopeKey)

	loaded, err := store.Load(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.NodeState{"keep": {Type: "toggle", State: true}}, loaded.Nodes)
}
