package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// GraphsURI is the resource listing the installed graphs.
const GraphsURI = "tendril://graphs"

// GraphInfo describes an installed graph.
type GraphInfo struct {
	Name        string   `json:"name" jsonschema_description:"Graph name"`
	Description string   `json:"description,omitempty"`
	Entries     []string `json:"entries" jsonschema_description:"Entry points that accept events"`
	Nodes       int      `json:"nodes"`
}

// EnqueueResponse is the result of enqueue_event.
type EnqueueResponse struct {
	ID      string `json:"id" jsonschema_description:"Event id, usable with cancel_event"`
	Pending int    `json:"pending" jsonschema_description:"Events waiting for the next drain"`
}

// ProcessResponse is the result of process_events and fire.
type ProcessResponse struct {
	Outcomes []domain.EventOutcome `json:"outcomes" jsonschema_description:"One outcome per drained event, in FIFO order"`
}

// CancelResponse is the result of cancel_event. Cancelled is false when
// the event already ran or never existed.
type CancelResponse struct {
	ID        string `json:"id"`
	Cancelled bool   `json:"cancelled"`
}

// Server exposes a Driver as an MCP server.
type Server struct {
	driver    *runner.Driver
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(d *runner.Driver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		driver:    d,
		logger:    logger,
		mcpServer: server.NewMCPServer("tendril-mcp", strings.TrimSpace(tendril.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mcp server listening", "transport", "sse", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_graphs",
		mcp.WithDescription("List the installed graphs and their entry points."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.graphs())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("enqueue_event",
		mcp.WithDescription("Queue an event for an entry point. It runs on the next drain."),
		mcp.WithString("entry", mcp.Required(), mcp.Description("Entry point name, optionally qualified as graph/entry")),
		mcp.WithString("graph", mcp.Description("Restrict resolution to this graph (optional)")),
		mcp.WithString("payload", mcp.Description("JSON object of entry node inputs (optional)")),
		mcp.WithOutputSchema[EnqueueResponse](),
	), mcp.NewStructuredToolHandler(s.handleEnqueue))

	s.mcpServer.AddTool(mcp.NewTool("process_events",
		mcp.WithDescription("Drain the queued events and return their outcomes."),
		mcp.WithOutputSchema[ProcessResponse](),
	), mcp.NewStructuredToolHandler(s.handleProcess))

	s.mcpServer.AddTool(mcp.NewTool("fire",
		mcp.WithDescription("Queue an event and drain immediately."),
		mcp.WithString("entry", mcp.Required(), mcp.Description("Entry point name, optionally qualified as graph/entry")),
		mcp.WithString("graph", mcp.Description("Restrict resolution to this graph (optional)")),
		mcp.WithString("payload", mcp.Description("JSON object of entry node inputs (optional)")),
		mcp.WithOutputSchema[ProcessResponse](),
	), mcp.NewStructuredToolHandler(s.handleFire))

	s.mcpServer.AddTool(mcp.NewTool("cancel_event",
		mcp.WithDescription("Remove a pending event before it runs."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Event id returned by enqueue_event")),
		mcp.WithOutputSchema[CancelResponse](),
	), mcp.NewStructuredToolHandler(s.handleCancel))
}

func (s *Server) handleCancel(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (CancelResponse, error) {
	id, _ := args["id"].(string)
	if id == "" {
		return CancelResponse{}, errors.New("id is required")
	}
	return CancelResponse{ID: id, Cancelled: s.driver.Cancel(id)}, nil
}

func (s *Server) handleEnqueue(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (EnqueueResponse, error) {
	graph, entry, payload, err := eventArgs(args)
	if err != nil {
		return EnqueueResponse{}, err
	}
	id := s.driver.EnqueueTo(graph, entry, payload)
	var pending int
	_ = s.driver.Do(func(m *tendril.Manager) error {
		pending = m.Pending()
		return nil
	})
	s.logger.Debug("mcp event queued", "event", id, "entry", entry)
	return EnqueueResponse{ID: id, Pending: pending}, nil
}

func (s *Server) handleProcess(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ProcessResponse, error) {
	return ProcessResponse{Outcomes: nonNil(s.driver.Tick(ctx))}, nil
}

func (s *Server) handleFire(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ProcessResponse, error) {
	graph, entry, payload, err := eventArgs(args)
	if err != nil {
		return ProcessResponse{}, err
	}
	return ProcessResponse{Outcomes: s.driver.Fire(ctx, graph, entry, payload)}, nil
}

func eventArgs(args map[string]any) (graph, entry string, payload map[string]any, err error) {
	entry, _ = args["entry"].(string)
	graph, _ = args["graph"].(string)
	if entry == "" {
		return "", "", nil, errors.New("entry is required")
	}
	raw, _ := args["payload"].(string)
	if raw == "" {
		return graph, entry, nil, nil
	}
	clean, err := runner.SanitizeInput(raw)
	if err != nil {
		return "", "", nil, fmt.Errorf("payload rejected: %w", err)
	}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return "", "", nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return graph, entry, payload, nil
}

func nonNil(o []domain.EventOutcome) []domain.EventOutcome {
	if o == nil {
		return []domain.EventOutcome{}
	}
	return o
}

func (s *Server) graphs() []GraphInfo {
	var out []GraphInfo
	_ = s.driver.Do(func(m *tendril.Manager) error {
		out = make([]GraphInfo, 0, len(m.Graphs()))
		for _, name := range m.Graphs() {
			def, _ := m.Graph(name)
			out = append(out, GraphInfo{
				Name:        name,
				Description: def.Spec().Description,
				Entries:     def.EntryNames(),
				Nodes:       def.Len(),
			})
		}
		return nil
	})
	return out
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphsURI, "Installed graphs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.graphs())
		if err != nil {
			return nil, fmt.Errorf("encode graphs: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
