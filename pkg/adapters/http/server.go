package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/dto"
	"github.com/aretw0/tendril/internal/logging"
	viz "github.com/aretw0/tendril/internal/presentation/graph"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// DefaultMaxBodySize bounds request bodies.
const DefaultMaxBodySize int64 = 1 << 20

// Server serves the HTTP surface of one Driver.
type Server struct {
	Driver  *runner.Driver
	Streams *StreamManager

	logger      *slog.Logger
	metrics     http.Handler
	maxBodySize int64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// NewServer creates a server for d.
func NewServer(d *runner.Driver, opts ...Option) *Server {
	s := &Server{
		Driver:      d,
		Streams:     NewStreamManager(),
		logger:      logging.NewNop(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graphs", s.ListGraphs)
	r.Get("/graphs/{name}", s.GetGraph)
	r.Get("/graphs/{name}/mermaid", s.GetMermaid)
	r.Post("/events", s.PostEvent)
	r.Delete("/events/{id}", s.CancelEvent)
	r.Post("/tick", s.Tick)
	r.Get("/vars", s.GetVars)
	r.Put("/vars/{name}", s.PutVar)
	r.Get("/stream", s.Stream)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

// Publish broadcasts outcomes to stream subscribers. It matches the
// signature of runner.WithOutcomeHandler.
func (s *Server) Publish(_ context.Context, outcomes []domain.EventOutcome) {
	for _, o := range outcomes {
		data, err := json.Marshal(o)
		if err != nil {
			s.logger.Warn("outcome encode failed", "event", o.EventID, "err", err)
			continue
		}
		s.Streams.Broadcast(o.Graph, string(data))
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GraphSummary describes an installed graph.
type GraphSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Entries     []string `json:"entries"`
	Nodes       int      `json:"nodes"`
}

// EventRequest is the body of POST /events.
type EventRequest struct {
	Graph   string         `json:"graph,omitempty"`
	Entry   string         `json:"entry"`
	Payload map[string]any `json:"payload,omitempty"`
}

// EventAccepted is the 202 response of POST /events.
type EventAccepted struct {
	ID string `json:"id"`
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "tendril-http",
		"version": strings.TrimSpace(tendril.Version),
	})
}

func (s *Server) ListGraphs(w http.ResponseWriter, r *http.Request) {
	var out []GraphSummary
	_ = s.Driver.Do(func(m *tendril.Manager) error {
		out = make([]GraphSummary, 0, len(m.Graphs()))
		for _, name := range m.Graphs() {
			def, _ := m.Graph(name)
			out = append(out, GraphSummary{
				Name:        name,
				Description: def.Spec().Description,
				Entries:     def.EntryNames(),
				Nodes:       def.Len(),
			})
		}
		return nil
	})
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var doc dto.GraphDocument
	err := s.Driver.Do(func(m *tendril.Manager) error {
		def, ok := m.Graph(name)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)
		}
		doc = dto.FromSpec(def.Spec())
		return nil
	})
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var chart string
	err := s.Driver.Do(func(m *tendril.Manager) error {
		def, ok := m.Graph(name)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)
		}
		chart = viz.GenerateMermaid(def, nil)
		return nil
	})
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, chart)
}

func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	var body EventRequest
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Entry == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("entry is required"))
		return
	}
	id := s.Driver.EnqueueTo(body.Graph, body.Entry, body.Payload)
	s.logger.Debug("event accepted", "event", id, "entry", body.Entry, "graph", body.Graph)
	s.writeJSON(w, http.StatusAccepted, EventAccepted{ID: id})
}

func (s *Server) CancelEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Driver.Cancel(id) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("event %s is not pending", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Tick(w http.ResponseWriter, r *http.Request) {
	outcomes := s.Driver.Tick(r.Context())
	if outcomes == nil {
		outcomes = []domain.EventOutcome{}
	}
	s.writeJSON(w, http.StatusOK, outcomes)
}

func (s *Server) GetVars(w http.ResponseWriter, r *http.Request) {
	var vars map[string]any
	_ = s.Driver.Do(func(m *tendril.Manager) error {
		vars = m.Vars()
		return nil
	})
	s.writeJSON(w, http.StatusOK, vars)
}

func (s *Server) PutVar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Value any `json:"value"`
	}
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	_ = s.Driver.Do(func(m *tendril.Manager) error {
		m.SetVar(name, body.Value)
		return nil
	})
	w.WriteHeader(http.StatusNoContent)
}

// Stream is a Server-Sent Events feed of outcomes, optionally restricted
// to one graph.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	graph := r.URL.Query().Get("graph")
	ch, cancel := s.Streams.Subscribe(graph)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("stream client disconnected", "graph", graph)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: outcome\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "err", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
