package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tendril/internal/runtime"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, p *probe, spec domain.GraphSpec) *graph.Definition {
	t.Helper()
	def, err := graph.Build(spec, p.registry(t))
	require.NoError(t, err)
	return def
}

// diamond: src feeds both left and right, which join into sum.
func diamond() domain.GraphSpec {
	return domain.GraphSpec{
		Name: "diamond",
		Nodes: []domain.NodeInstance{
			{ID: "src", Type: "source", Params: map[string]any{"value": 3}},
			{ID: "left", Type: "double"},
			{ID: "right", Type: "double"},
			{ID: "sum", Type: "join"},
		},
		Connections: []domain.Connection{
			domain.Connect("src", "out", "left", "in"),
			domain.Connect("src", "out", "right", "in"),
			domain.Connect("left", "out", "sum", "a"),
			domain.Connect("right", "out", "sum", "b"),
		},
		EntryPoints: map[string]string{"total": "sum", "origin": "src"},
	}
}

func TestRunEntry_Memoization(t *testing.T) {
	p := newProbe()
	def := build(t, p, diamond())
	ev := runtime.NewEvaluator()

	out, err := ev.RunEntry(context.Background(), def, runtime.NewSlots(def), "total", nil)
	require.NoError(t, err)

	assert.Equal(t, 12.0, out["sum"])
	assert.Equal(t, 1, p.calls["source"], "shared upstream evaluated once per event")
	assert.Equal(t, 2, p.calls["double"])
	assert.Equal(t, 1, p.calls["join"])
}

func TestRunEntry_PushesDownstream(t *testing.T) {
	p := newProbe()
	def := build(t, p, diamond())

	out, err := runtime.NewEvaluator().RunEntry(context.Background(), def, runtime.NewSlots(def), "origin", map[string]any{"value": 5})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"out": 5.0}, out)
	assert.Equal(t, 1, p.calls["source"])
	assert.Equal(t, 1, p.calls["join"], "downstream nodes run as part of the entry")
}

func TestRunEntry_EffectRunsOnce(t *testing.T) {
	p := newProbe()
	spec := domain.GraphSpec{
		Name: "fan",
		Nodes: []domain.NodeInstance{
			{ID: "fx", Type: "effect", Params: map[string]any{"value": 2, "emit": true}},
			{ID: "a", Type: "double"},
			{ID: "b", Type: "double"},
			{ID: "j", Type: "join"},
		},
		Connections: []domain.Connection{
			domain.Connect("fx", "out", "a", "in"),
			domain.Connect("fx", "out", "b", "in"),
			domain.Connect("a", "out", "j", "a"),
			domain.Connect("b", "out", "j", "b"),
		},
		EntryPoints: map[string]string{"go": "fx", "pull": "j"},
	}
	def := build(t, p, spec)
	host := &recordingHost{}
	ev := runtime.NewEvaluator(runtime.WithHost(host))

	_, err := ev.RunEntry(context.Background(), def, runtime.NewSlots(def), "go", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls["effect"])
	assert.Equal(t, []any{2.0}, host.emitted)

	_, err = ev.RunEntry(context.Background(), def, runtime.NewSlots(def), "pull", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls["effect"], "pulled from two consumers, still once per event")
}

func TestRunEntry_InputPrecedence(t *testing.T) {
	p := newProbe()
	spec := domain.GraphSpec{
		Name: "precedence",
		Nodes: []domain.NodeInstance{
			{ID: "src", Type: "source", Params: map[string]any{"value": 10}},
		},
		EntryPoints: map[string]string{"go": "src"},
	}
	def := build(t, p, spec)
	ev := runtime.NewEvaluator()

	out, err := ev.RunEntry(context.Background(), def, runtime.NewSlots(def), "go", map[string]any{"value": 4})
	require.NoError(t, err)
	assert.Equal(t, 4.0, out["out"], "payload beats static parameter")

	out, err = ev.RunEntry(context.Background(), def, runtime.NewSlots(def), "go", nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, out["out"], "static parameter beats default")

	spec.Nodes[0].Params = nil
	def = build(t, p, spec)
	out, err = ev.RunEntry(context.Background(), def, runtime.NewSlots(def), "go", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, out["out"], "slot default applies last")
}

func TestRunEntry_PayloadOnlyFeedsEntry(t *testing.T) {
	p := newProbe()
	spec := domain.GraphSpec{
		Name: "payload",
		Nodes: []domain.NodeInstance{
			{ID: "fx", Type: "effect"},
			{ID: "d", Type: "double"},
		},
		Connections: []domain.Connection{domain.Connect("fx", "out", "d", "in")},
		EntryPoints: map[string]string{"go": "d"},
	}
	def := build(t, p, spec)

	// "in" is connected, so the payload does not reach the upstream effect.
	_, err := runtime.NewEvaluator().RunEntry(context.Background(), def, runtime.NewSlots(def), "go", map[string]any{"in": 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTypeMismatch, "optional upstream value missing, nil fed into number slot")
}

func TestRunEntry_Errors(t *testing.T) {
	p := newProbe()
	spec := domain.GraphSpec{
		Name: "errors",
		Nodes: []domain.NodeInstance{
			{ID: "d", Type: "double"},
			{ID: "boom", Type: "boom"},
			{ID: "liar", Type: "liar"},
			{ID: "fx", Type: "effect", Params: map[string]any{"emit": true, "value": "x"}},
		},
		EntryPoints: map[string]string{"double": "d", "boom": "boom", "liar": "liar", "fx": "fx"},
	}
	def := build(t, p, spec)

	tests := []struct {
		name    string
		host    *recordingHost
		entry   string
		payload map[string]any
		want    error
	}{
		{"unknown entry", nil, "nope", nil, domain.ErrUnknownEntryPoint},
		{"missing input", nil, "double", nil, domain.ErrMissingRequiredInput},
		{"payload kind mismatch", nil, "double", map[string]any{"in": "three"}, domain.ErrTypeMismatch},
		{"payload unknown slot", nil, "double", map[string]any{"in": 1, "extra": 2}, domain.ErrUnknownSlot},
		{"panic", nil, "boom", nil, domain.ErrNodeFailed},
		{"output kind mismatch", nil, "liar", nil, domain.ErrTypeMismatch},
		{"host failure", &recordingHost{fail: errors.New("socket closed")}, "fx", nil, domain.ErrHostCapability},
		{"no host attached", nil, "fx", nil, domain.ErrHostCapability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []runtime.EvaluatorOption
			if tt.host != nil {
				opts = append(opts, runtime.WithHost(tt.host))
			}
			_, err := runtime.NewEvaluator(opts...).RunEntry(context.Background(), def, runtime.NewSlots(def), tt.entry, tt.payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var ee *domain.EvalError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.entry, ee.Entry)
		})
	}
}

func TestRunEntry_HostErrorKeepsCause(t *testing.T) {
	p := newProbe()
	spec := domain.GraphSpec{
		Name:        "host",
		Nodes:       []domain.NodeInstance{{ID: "fx", Type: "effect", Params: map[string]any{"emit": true}}},
		EntryPoints: map[string]string{"go": "fx"},
	}
	def := build(t, p, spec)
	cause := errors.New("socket closed")

	_, err := runtime.NewEvaluator(runtime.WithHost(&recordingHost{fail: cause})).
		RunEntry(context.Background(), def, runtime.NewSlots(def), "go", nil)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "emit effect")
}

func TestRunEntry_StatefulPersistsAcrossRuns(t *testing.T) {
	p := newProbe()
	spec := domain.GraphSpec{
		Name:        "tally",
		Nodes:       []domain.NodeInstance{{ID: "t", Type: "tally", Params: map[string]any{"start": 10}}},
		EntryPoints: map[string]string{"tick": "t"},
	}
	def := build(t, p, spec)
	slots := runtime.NewSlots(def)
	ev := runtime.NewEvaluator()
	ctx := context.Background()

	for _, want := range []float64{11, 12, 13} {
		out, err := ev.RunEntry(ctx, def, slots, "tick", nil)
		require.NoError(t, err)
		assert.Equal(t, want, out["count"])
	}

	_, err := ev.RunEntry(ctx, def, slots, "tick", map[string]any{"step": -1})
	require.ErrorIs(t, err, domain.ErrNodeFailed)

	out, err := ev.RunEntry(ctx, def, slots, "tick", nil)
	require.NoError(t, err)
	assert.Equal(t, 14.0, out["count"], "failed step must not commit state")

	out, err = ev.RunEntry(ctx, def, runtime.NewSlots(def), "tick", nil)
	require.NoError(t, err)
	assert.Equal(t, 11.0, out["count"], "fresh slots start over")
}

func TestEvaluate_CycleDetected(t *testing.T) {
	p := newProbe()
	spec := domain.GraphSpec{
		Name: "island",
		Nodes: []domain.NodeInstance{
			{ID: "entry", Type: "relay"},
			{ID: "a", Type: "relay"},
			{ID: "b", Type: "relay"},
		},
		Connections: []domain.Connection{
			domain.Connect("a", "out", "b", "in"),
			domain.Connect("b", "out", "a", "in"),
		},
		EntryPoints: map[string]string{"go": "entry"},
	}
	def := build(t, p, spec)
	entry, _ := def.Entry("go")
	a, _ := def.Lookup("a")

	run := runtime.NewExecutionContext(def, runtime.NewSlots(def), entry, nil)
	_, err := runtime.NewEvaluator().Evaluate(context.Background(), run, a.Index)
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestEvaluate_ContextCanceled(t *testing.T) {
	p := newProbe()
	def := build(t, p, diamond())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runtime.NewEvaluator().RunEntry(ctx, def, runtime.NewSlots(def), "total", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.calls["source"])
}

func TestEvaluate_Hooks(t *testing.T) {
	p := newProbe()
	def := build(t, p, diamond())

	var entered, left []string
	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, h *domain.NodeHook) { entered = append(entered, h.NodeID) },
		OnNodeLeave: func(_ context.Context, h *domain.NodeHook) {
			assert.Equal(t, domain.HookNodeLeave, h.Type)
			left = append(left, h.NodeID)
		},
	}

	_, err := runtime.NewEvaluator(runtime.WithHooks(hooks)).RunEntry(context.Background(), def, runtime.NewSlots(def), "total", nil)
	require.NoError(t, err)
	assert.Len(t, entered, 4, "cached reads produce no hooks")
	assert.Equal(t, entered, left)
	assert.Equal(t, "sum", entered[len(entered)-1])
}
