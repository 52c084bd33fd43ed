package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity() registry.Pure {
	return func(_ context.Context, call *registry.Call) (registry.Outputs, error) {
		return registry.Outputs{"out": call.Inputs["in"]}, nil
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := registry.New()
	err := r.Register(registry.NodeDescriptor{
		Type:     "identity",
		Inputs:   []domain.SlotSpec{domain.Slot("in", schema.Any)},
		Outputs:  []domain.SlotSpec{domain.Slot("out", schema.Any)},
		Behavior: identity(),
	})
	require.NoError(t, err)

	desc, err := r.Lookup("identity")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryPure, desc.Category())

	in, ok := desc.Input("in")
	assert.True(t, ok)
	assert.Equal(t, schema.Any, in.Kind)
	_, ok = desc.Output("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"identity"}, r.Types())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Duplicate(t *testing.T) {
	r := registry.New()
	desc := registry.NodeDescriptor{Type: "x", Behavior: identity()}
	require.NoError(t, r.Register(desc))

	err := r.Register(desc)
	assert.ErrorIs(t, err, domain.ErrDuplicateNodeType)
}

func TestRegistry_UnknownType(t *testing.T) {
	_, err := registry.New().Lookup("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
}

func TestRegistry_InvalidDescriptors(t *testing.T) {
	tests := []struct {
		name string
		desc registry.NodeDescriptor
	}{
		{"empty type", registry.NodeDescriptor{Behavior: identity()}},
		{"no behavior", registry.NodeDescriptor{Type: "x"}},
		{"stateful without step", registry.NodeDescriptor{Type: "x", Behavior: &registry.Stateful{}}},
		{"duplicate slot", registry.NodeDescriptor{
			Type:     "x",
			Inputs:   []domain.SlotSpec{domain.Slot("a", schema.Number), domain.Slot("a", schema.Text)},
			Behavior: identity(),
		}},
		{"bad kind", registry.NodeDescriptor{
			Type:     "x",
			Outputs:  []domain.SlotSpec{{Name: "o", Kind: "vector"}},
			Behavior: identity(),
		}},
		{"bad default", registry.NodeDescriptor{
			Type:     "x",
			Inputs:   []domain.SlotSpec{domain.SlotWithDefault("n", schema.Number, "one")},
			Behavior: identity(),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.New().Register(tt.desc)
			assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)
		})
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := registry.New()
	r.MustRegister(registry.NodeDescriptor{Type: "x", Behavior: identity()})
	assert.Panics(t, func() {
		r.MustRegister(registry.NodeDescriptor{Type: "x", Behavior: identity()})
	})
}

func TestBehavior_Categories(t *testing.T) {
	var eff registry.Effectful = func(context.Context, *registry.Call) (registry.Outputs, error) { return nil, nil }
	st := &registry.Stateful{Step: func(context.Context, *registry.Call, any) (registry.Outputs, any, error) {
		return nil, nil, nil
	}}

	assert.Equal(t, domain.CategoryPure, identity().Category())
	assert.Equal(t, domain.CategoryEffectful, eff.Category())
	assert.Equal(t, domain.CategoryStateful, st.Category())
}

func TestCall_TypedAccessors(t *testing.T) {
	call := &registry.Call{Inputs: map[string]any{
		"n": 2.5, "b": true, "s": "hi", "e": schema.EntityRef("p1"),
	}}
	assert.Equal(t, 2.5, call.Number("n"))
	assert.True(t, call.Bool("b"))
	assert.Equal(t, "hi", call.Text("s"))
	assert.Equal(t, schema.EntityRef("p1"), call.Entity("e"))
	assert.Zero(t, call.Number("missing"))

	_, ok := call.Value("missing")
	assert.False(t, ok)
}
