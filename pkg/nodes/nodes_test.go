package nodes_test

import (
	"context"
	"testing"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/nodes"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	m    *tendril.Manager
	host *memory.Host
}

func newHarness(t *testing.T, spec domain.GraphSpec) *harness {
	t.Helper()
	host := memory.NewHost()
	m := tendril.New(nodes.NewRegistry(), tendril.WithHost(host))
	require.NoError(t, m.Load(context.Background(), spec))
	return &harness{m: m, host: host}
}

func (h *harness) fire(t *testing.T, entry string, payload map[string]any) domain.EventOutcome {
	t.Helper()
	h.m.Enqueue(entry, payload)
	outcomes := h.m.ProcessEvents(context.Background())
	require.NotEmpty(t, outcomes)
	return outcomes[0]
}

// single wraps one node of the given type as the entry "go".
func single(typeID string, params map[string]any) domain.GraphSpec {
	return domain.GraphSpec{
		Name:        "single",
		Nodes:       []domain.NodeInstance{{ID: "n", Type: typeID, Params: params}},
		EntryPoints: map[string]string{"go": "n"},
	}
}

func TestNewRegistry_HasAllTypes(t *testing.T) {
	r := nodes.NewRegistry()
	for _, typeID := range []string{
		nodes.TypeConst, nodes.TypeEventValue, nodes.TypeAdd, nodes.TypeSub, nodes.TypeMul, nodes.TypeDiv,
		nodes.TypeCompare, nodes.TypeAnd, nodes.TypeOr, nodes.TypeNot, nodes.TypeSelect,
		nodes.TypeConcat, nodes.TypeFormat, nodes.TypePrint, nodes.TypeEmit,
		nodes.TypeHostGet, nodes.TypeHostSet, nodes.TypeEnqueue, nodes.TypeVarGet, nodes.TypeVarSet,
		nodes.TypeCounter, nodes.TypeToggle, nodes.TypeLatch,
	} {
		_, err := r.Lookup(typeID)
		assert.NoError(t, err, typeID)
	}
	assert.Equal(t, len(nodes.Descriptors()), r.Len())
}

func TestRegister_Twice(t *testing.T) {
	r := registry.New()
	require.NoError(t, nodes.Register(r))
	assert.ErrorIs(t, nodes.Register(r), domain.ErrDuplicateNodeType)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{5.0, "5"},
		{2.5, "2.5"},
		{7, "7"},
		{"hi", "hi"},
		{true, "true"},
		{nil, ""},
		{[]any{1.0, "a"}, `[1,"a"]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nodes.Format(tt.in))
	}
}

func TestConstAddPrint(t *testing.T) {
	h := newHarness(t, domain.GraphSpec{
		Name: "hello",
		Nodes: []domain.NodeInstance{
			{ID: "two", Type: nodes.TypeConst, Params: map[string]any{"value": 2}},
			{ID: "three", Type: nodes.TypeConst, Params: map[string]any{"value": 3}},
			{ID: "add", Type: nodes.TypeAdd},
			{ID: "print", Type: nodes.TypePrint},
		},
		Connections: []domain.Connection{
			domain.Connect("two", "out", "add", "a"),
			domain.Connect("three", "out", "add", "b"),
			domain.Connect("add", "sum", "print", "value"),
		},
		EntryPoints: map[string]string{"start": "two"},
	})

	out := h.fire(t, "start", nil)
	require.True(t, out.Succeeded(), out.Reason)
	assert.Equal(t, []any{"5"}, h.host.Emitted(nodes.PrintTopic))
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		typeID, output string
		a, b, want     float64
	}{
		{nodes.TypeAdd, "sum", 2, 3, 5},
		{nodes.TypeSub, "difference", 2, 3, -1},
		{nodes.TypeMul, "product", 2, 3, 6},
		{nodes.TypeDiv, "quotient", 3, 2, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.typeID, func(t *testing.T) {
			h := newHarness(t, single(tt.typeID, nil))
			out := h.fire(t, "go", map[string]any{"a": tt.a, "b": tt.b})
			require.True(t, out.Succeeded(), out.Reason)
			assert.Equal(t, tt.want, out.Outputs[tt.output])
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	h := newHarness(t, single(nodes.TypeDiv, nil))
	out := h.fire(t, "go", map[string]any{"a": 1, "b": 0})
	assert.False(t, out.Succeeded())
	assert.ErrorIs(t, out.Err, domain.ErrNodeFailed)
	assert.Contains(t, out.Reason, "division by zero")
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		op   string
		want bool
	}{
		{"eq numbers", 1, 1.0, "eq", true},
		{"ne text", "a", "b", "ne", true},
		{"lt", 1, 2, "lt", true},
		{"ge", 2, 2, "ge", true},
		{"gt text", "b", "a", "gt", true},
		{"le false", 3, 2, "le", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, single(nodes.TypeCompare, map[string]any{"op": tt.op}))
			out := h.fire(t, "go", map[string]any{"a": tt.a, "b": tt.b})
			require.True(t, out.Succeeded(), out.Reason)
			assert.Equal(t, tt.want, out.Outputs["result"])
		})
	}

	t.Run("mixed ordering fails", func(t *testing.T) {
		h := newHarness(t, single(nodes.TypeCompare, map[string]any{"op": "lt"}))
		out := h.fire(t, "go", map[string]any{"a": 1, "b": "x"})
		assert.False(t, out.Succeeded())
	})
}

func TestLogicAndSelect(t *testing.T) {
	h := newHarness(t, single(nodes.TypeAnd, nil))
	out := h.fire(t, "go", map[string]any{"a": true, "b": false})
	require.True(t, out.Succeeded(), out.Reason)
	assert.Equal(t, false, out.Outputs["out"])

	h = newHarness(t, single(nodes.TypeNot, nil))
	out = h.fire(t, "go", map[string]any{"in": false})
	assert.Equal(t, true, out.Outputs["out"])

	h = newHarness(t, single(nodes.TypeSelect, map[string]any{"then": "yes", "else": "no"}))
	out = h.fire(t, "go", map[string]any{"cond": true})
	assert.Equal(t, "yes", out.Outputs["out"])
	out = h.fire(t, "go", map[string]any{"cond": false})
	assert.Equal(t, "no", out.Outputs["out"])
}

func TestText(t *testing.T) {
	h := newHarness(t, single(nodes.TypeConcat, map[string]any{"sep": " "}))
	out := h.fire(t, "go", map[string]any{"a": "hello", "b": "world"})
	require.True(t, out.Succeeded(), out.Reason)
	assert.Equal(t, "hello world", out.Outputs["out"])

	h = newHarness(t, single(nodes.TypeFormat, map[string]any{"template": "hp={}"}))
	out = h.fire(t, "go", map[string]any{"value": 10})
	require.True(t, out.Succeeded(), out.Reason)
	assert.Equal(t, "hp=10", out.Outputs["out"])
}

func TestHostNodes(t *testing.T) {
	h := newHarness(t, domain.GraphSpec{
		Name: "world",
		Nodes: []domain.NodeInstance{
			{ID: "set", Type: nodes.TypeHostSet, Params: map[string]any{"entity": "door", "component": "open"}},
			{ID: "get", Type: nodes.TypeHostGet, Params: map[string]any{"entity": "door", "component": "open"}},
		},
		EntryPoints: map[string]string{"open": "set", "check": "get"},
	})

	out := h.fire(t, "check", nil)
	require.True(t, out.Succeeded(), out.Reason)
	assert.Equal(t, false, out.Outputs["found"])

	out = h.fire(t, "open", map[string]any{"value": true})
	require.True(t, out.Succeeded(), out.Reason)

	out = h.fire(t, "check", nil)
	require.True(t, out.Succeeded(), out.Reason)
	assert.Equal(t, true, out.Outputs["found"])
	assert.Equal(t, true, out.Outputs["value"])
}

func TestEmit_HostFailure(t *testing.T) {
	h := newHarness(t, single(nodes.TypeEmit, map[string]any{"topic": "sound"}))
	h.host.FailWith(assert.AnError)

	out := h.fire(t, "go", map[string]any{"value": "beep"})
	assert.False(t, out.Succeeded())
	assert.ErrorIs(t, out.Err, domain.ErrHostCapability)
}

func TestEnqueue_DefersToNextDrain(t *testing.T) {
	h := newHarness(t, domain.GraphSpec{
		Name: "chain",
		Nodes: []domain.NodeInstance{
			{ID: "kick", Type: nodes.TypeEnqueue, Params: map[string]any{"entry": "echo"}},
			{ID: "echo", Type: nodes.TypePrint},
		},
		EntryPoints: map[string]string{"kick": "kick", "echo": "echo"},
	})

	out := h.fire(t, "kick", map[string]any{"value": "later"})
	require.True(t, out.Succeeded(), out.Reason)
	assert.NotEmpty(t, out.Outputs["event"])
	assert.Empty(t, h.host.Emitted(nodes.PrintTopic))
	assert.Equal(t, 1, h.m.Pending())

	outcomes := h.m.ProcessEvents(context.Background())
	require.Len(t, outcomes, 1)
	assert.Equal(t, out.Outputs["event"], outcomes[0].EventID)
	assert.Equal(t, []any{"later"}, h.host.Emitted(nodes.PrintTopic))
}

func TestVariables(t *testing.T) {
	h := newHarness(t, domain.GraphSpec{
		Name: "vars",
		Nodes: []domain.NodeInstance{
			{ID: "set", Type: nodes.TypeVarSet, Params: map[string]any{"name": "score"}},
			{ID: "get", Type: nodes.TypeVarGet, Params: map[string]any{"name": "score"}},
		},
		EntryPoints: map[string]string{"set": "set", "get": "get"},
	})

	out := h.fire(t, "set", map[string]any{"value": 42})
	require.True(t, out.Succeeded(), out.Reason)
	v, ok := h.m.Var("score")
	require.True(t, ok)
	assert.Equal(t, 42.0, v)

	out = h.fire(t, "get", nil)
	require.True(t, out.Succeeded(), out.Reason)
	assert.Equal(t, 42.0, out.Outputs["value"])
}

func TestCounter(t *testing.T) {
	h := newHarness(t, single(nodes.TypeCounter, map[string]any{"start": 10}))

	assert.Equal(t, 11.0, h.fire(t, "go", nil).Outputs["count"])
	assert.Equal(t, 13.0, h.fire(t, "go", map[string]any{"step": 2}).Outputs["count"])
	assert.Equal(t, 10.0, h.fire(t, "go", map[string]any{"reset": true}).Outputs["count"])
}

func TestToggleAndLatch(t *testing.T) {
	h := newHarness(t, single(nodes.TypeToggle, nil))
	assert.Equal(t, true, h.fire(t, "go", nil).Outputs["state"])
	assert.Equal(t, false, h.fire(t, "go", nil).Outputs["state"])

	h = newHarness(t, single(nodes.TypeLatch, nil))
	assert.Equal(t, false, h.fire(t, "go", nil).Outputs["value"])
	assert.Equal(t, true, h.fire(t, "go", map[string]any{"set": true}).Outputs["value"])
	assert.Equal(t, true, h.fire(t, "go", nil).Outputs["value"])
	assert.Equal(t, false, h.fire(t, "go", map[string]any{"reset": true}).Outputs["value"])
}
