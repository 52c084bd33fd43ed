package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/dsl"
	"github.com/aretw0/tendril/pkg/nodes"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *memory.Host) {
	t.Helper()
	spec, err := dsl.New("echo").
		Node("in", nodes.TypeEventValue).AsEntry("go").
		Node("print", nodes.TypePrint).
		Connect("in.value", "print.value").
		Build()
	require.NoError(t, err)

	host := memory.NewHost()
	m := tendril.New(nodes.NewRegistry(), tendril.WithHost(host))
	require.NoError(t, m.Load(context.Background(), spec))
	return NewServer(runner.NewDriver(m), nil), host
}

func TestServer_EnqueueAndProcess(t *testing.T) {
	s, host := newTestServer(t)
	ctx := context.Background()

	queued, err := s.handleEnqueue(ctx, mcp.CallToolRequest{}, map[string]any{
		"entry":   "go",
		"payload": `{"value": "hi"}`,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, queued.ID)
	assert.Equal(t, 1, queued.Pending)

	res, err := s.handleProcess(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, queued.ID, res.Outcomes[0].EventID)
	assert.Equal(t, domain.OutcomeSucceeded, res.Outcomes[0].Status)
	assert.Equal(t, []any{"hi"}, host.Emitted(nodes.PrintTopic))

	res, err = s.handleProcess(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Outcomes)
	assert.Empty(t, res.Outcomes)
}

func TestServer_Fire(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleFire(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"entry": "echo/go",
	})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, domain.OutcomeFailed, res.Outcomes[0].Status)
}

func TestServer_FireOnlyReportsItsEvent(t *testing.T) {
	s, host := newTestServer(t)
	ctx := context.Background()
	queued, err := s.handleEnqueue(ctx, mcp.CallToolRequest{}, map[string]any{
		"entry":   "go",
		"payload": `{"value": "first"}`,
	})
	require.NoError(t, err)

	res, err := s.handleFire(ctx, mcp.CallToolRequest{}, map[string]any{
		"entry":   "go",
		"payload": `{"value": "second"}`,
	})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.NotEqual(t, queued.ID, res.Outcomes[0].EventID)
	assert.Equal(t, domain.OutcomeSucceeded, res.Outcomes[0].Status)
	assert.Equal(t, []any{"first", "second"}, host.Emitted(nodes.PrintTopic))
}

func TestServer_Cancel(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	queued, err := s.handleEnqueue(ctx, mcp.CallToolRequest{}, map[string]any{"entry": "go"})
	require.NoError(t, err)

	res, err := s.handleCancel(ctx, mcp.CallToolRequest{}, map[string]any{"id": queued.ID})
	require.NoError(t, err)
	assert.True(t, res.Cancelled)

	res, err = s.handleCancel(ctx, mcp.CallToolRequest{}, map[string]any{"id": queued.ID})
	require.NoError(t, err)
	assert.False(t, res.Cancelled)

	_, err = s.handleCancel(ctx, mcp.CallToolRequest{}, map[string]any{})
	assert.Error(t, err)
}

func TestEventArgs(t *testing.T) {
	_, _, _, err := eventArgs(map[string]any{})
	assert.Error(t, err)

	_, _, _, err = eventArgs(map[string]any{"entry": "go", "payload": "[1,2]"})
	assert.Error(t, err)

	graph, entry, payload, err := eventArgs(map[string]any{"entry": "go", "graph": "echo", "payload": `{"value":1}`})
	require.NoError(t, err)
	assert.Equal(t, "echo", graph)
	assert.Equal(t, "go", entry)
	assert.Equal(t, map[string]any{"value": 1.0}, payload)
}

func TestServer_Graphs(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Equal(t, []GraphInfo{{Name: "echo", Entries: []string{"go"}, Nodes: 2}}, s.graphs())

	data, err := json.Marshal(s.graphs())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"echo","entries":["go"],"nodes":2}]`, string(data))
	assert.NotNil(t, s.MCPServer())
}
