package tendril

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/internal/runtime"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/graph"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/google/uuid"
)

// Manager owns the installed graphs, the event queue and the global
// variables. It is the single mutation point of the VM.
//
// A Manager has one logical owner: calls must not be made concurrently.
// Node behaviors may call Enqueue and the variable accessors while
// ProcessEvents is running; such events are deferred to the next call.
type Manager struct {
	registry *registry.Registry
	eval     *runtime.Evaluator
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	host     ports.Host
	store    ports.StateStore

	graphs map[string]*installed
	order  []string
	queue  runtime.Queue
	vars   map[string]any

	newID func() string
	now   func() time.Time
}

type installed struct {
	def   *graph.Definition
	slots *runtime.Slots
}

// Option defines a functional option for configuring the Manager.
type Option func(*Manager)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = m.hooks.Merge(hooks)
	}
}

// WithHost sets the host capability handed to effectful and stateful nodes.
func WithHost(host ports.Host) Option {
	return func(m *Manager) {
		m.host = host
	}
}

// WithStateStore enables SaveState and RestoreState.
func WithStateStore(store ports.StateStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithVariables seeds the global variables.
func WithVariables(vars map[string]any) Option {
	return func(m *Manager) {
		maps.Copy(m.vars, vars)
	}
}

// WithIDGenerator replaces the event id generator (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// New creates a Manager that builds graphs against reg.
func New(reg *registry.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: reg,
		graphs:   make(map[string]*installed),
		vars:     make(map[string]any),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NewNop()
	}

	m.eval = runtime.NewEvaluator(
		runtime.WithLogger(m.logger),
		runtime.WithHooks(m.hooks),
		runtime.WithHost(m.host),
		runtime.WithEventSink(m),
		runtime.WithVariables(m),
	)
	return m
}

// Registry returns the node registry graphs are built against.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Load validates spec and installs it under spec.Name. On failure the
// previously installed graph of that name, if any, is left untouched.
func (m *Manager) Load(ctx context.Context, spec domain.GraphSpec) error {
	def, err := graph.Build(spec, m.registry)
	if err != nil {
		m.logger.Warn("graph rejected", "graph", spec.Name, "error", err)
		return err
	}
	return m.Install(ctx, spec.Name, def)
}

// LoadFrom loads one graph by name from loader.
func (m *Manager) LoadFrom(ctx context.Context, loader ports.GraphLoader, name string) error {
	spec, err := loader.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if spec.Name == "" {
		spec.Name = name
	}
	return m.Load(ctx, spec)
}

// LoadAll loads every graph the loader lists. Each graph is installed on
// its own; the returned error joins the failures.
func (m *Manager) LoadAll(ctx context.Context, loader ports.GraphLoader) error {
	names, err := loader.List(ctx)
	if err != nil {
		return fmt.Errorf("list graphs: %w", err)
	}
	var errs []error
	for _, name := range names {
		if err := m.LoadFrom(ctx, loader, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Install replaces the graph registered under name with def in one step.
// State of stateful instances that keep their id and type is carried over.
func (m *Manager) Install(ctx context.Context, name string, def *graph.Definition) error {
	if name == "" {
		return fmt.Errorf("%w: graph name is required", domain.ErrInvalidGraph)
	}
	if def == nil {
		return fmt.Errorf("%w: nil definition", domain.ErrInvalidGraph)
	}

	next := &installed{def: def, slots: runtime.NewSlots(def)}
	prev, replaced := m.graphs[name]

	var diff *domain.GraphDiff
	if replaced {
		carried := next.slots.CarryFrom(prev.slots)
		oldSpec, newSpec := prev.def.Spec(), def.Spec()
		diff = domain.Diff(&oldSpec, &newSpec)
		m.logger.Info("graph replaced", "graph", name, "nodes", def.Len(), "carried_state", carried)
	} else {
		m.order = append(m.order, name)
		m.logger.Info("graph installed", "graph", name, "nodes", def.Len(), "entries", def.EntryNames())
	}
	m.graphs[name] = next

	if m.hooks.OnGraphInstalled != nil {
		m.hooks.OnGraphInstalled(ctx, &domain.GraphHook{
			HookBase: domain.HookBase{Timestamp: m.now(), Type: domain.HookGraphInstalled},
			Graph:    name,
			Replaced: replaced,
			Diff:     diff,
		})
	}
	return nil
}

// Uninstall removes a graph. Pending events that target it will fail when drained.
func (m *Manager) Uninstall(name string) bool {
	if _, ok := m.graphs[name]; !ok {
		return false
	}
	delete(m.graphs, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.logger.Info("graph uninstalled", "graph", name)
	return true
}

// Graph returns an installed definition.
func (m *Manager) Graph(name string) (*graph.Definition, bool) {
	inst, ok := m.graphs[name]
	if !ok {
		return nil, false
	}
	return inst.def, true
}

// Graphs returns the names of the installed graphs in lexical order.
func (m *Manager) Graphs() []string {
	names := append([]string(nil), m.order...)
	sort.Strings(names)
	return names
}

// Enqueue appends an event for entry and returns its id. It always
// succeeds; resolution of the entry point happens when the event is drained.
// The entry may be qualified as "graph/entry".
func (m *Manager) Enqueue(entry string, payload map[string]any) string {
	return m.EnqueueTo("", entry, payload)
}

// EnqueueTo appends an event that only resolves against the named graph.
func (m *Manager) EnqueueTo(graphName, entry string, payload map[string]any) string {
	ev := domain.Event{
		ID:         m.newID(),
		Graph:      graphName,
		Entry:      entry,
		Payload:    payload,
		EnqueuedAt: m.now(),
	}
	m.queue.Push(ev)
	m.logger.Debug("event enqueued", "event", ev.ID, "entry", entry, "graph", graphName)
	return ev.ID
}

// Cancel removes a pending event before it is drained.
func (m *Manager) Cancel(eventID string) bool {
	return m.queue.Remove(eventID)
}

// Pending returns the number of queued events.
func (m *Manager) Pending() int { return m.queue.Len() }

// ProcessEvents drains the events queued so far, in FIFO order, and
// returns one outcome per event. A failing event never prevents the
// following ones from running. Events enqueued while draining are left
// for the next call.
func (m *Manager) ProcessEvents(ctx context.Context) []domain.EventOutcome {
	batch := m.queue.Drain()
	if len(batch) == 0 {
		return nil
	}

	outcomes := make([]domain.EventOutcome, 0, len(batch))
	for _, ev := range batch {
		outcomes = append(outcomes, m.process(ctx, ev))
	}
	return outcomes
}

func (m *Manager) process(ctx context.Context, ev domain.Event) domain.EventOutcome {
	start := m.now()
	if m.hooks.OnEventStart != nil {
		m.hooks.OnEventStart(ctx, &domain.EventHook{
			HookBase: domain.HookBase{Timestamp: start, Type: domain.HookEventStart},
			Event:    ev,
		})
	}

	outcome := domain.EventOutcome{EventID: ev.ID, Entry: ev.Entry}

	inst, name, entry, err := m.resolve(ev)
	if err == nil {
		outcome.Graph = name
		outcome.Outputs, err = m.eval.RunEntry(ctx, inst.def, inst.slots, entry, ev.Payload)
	}
	outcome.Duration = m.now().Sub(start)

	if err != nil {
		outcome.Status = domain.OutcomeFailed
		outcome.Outputs = nil
		outcome.Err = err
		outcome.Reason = err.Error()
		m.logger.Warn("event failed", "event", ev.ID, "entry", ev.Entry, "error", err)
	} else {
		outcome.Status = domain.OutcomeSucceeded
		m.logger.Debug("event processed", "event", ev.ID, "graph", name, "entry", entry, "duration", outcome.Duration)
	}

	if m.hooks.OnEventDone != nil {
		m.hooks.OnEventDone(ctx, &domain.EventHook{
			HookBase: domain.HookBase{Timestamp: m.now(), Type: domain.HookEventDone},
			Event:    ev,
			Outcome:  &outcome,
		})
	}
	return outcome
}

// resolve finds the graph defining the event's entry point.
func (m *Manager) resolve(ev domain.Event) (*installed, string, string, error) {
	name, entry := ev.Graph, ev.Entry
	if name == "" {
		if g, e, ok := strings.Cut(entry, domain.QualifiedEntrySeparator); ok {
			if _, known := m.graphs[g]; known {
				name, entry = g, e
			}
		}
	}

	if name != "" {
		inst, ok := m.graphs[name]
		if !ok {
			return nil, "", "", &domain.EvalError{Entry: entry, Kind: domain.ErrUnknownEntryPoint,
				Err: fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)}
		}
		if _, ok := inst.def.Entry(entry); !ok {
			return nil, "", "", &domain.EvalError{Entry: entry, Kind: domain.ErrUnknownEntryPoint,
				Err: fmt.Errorf("graph %s does not define it", name)}
		}
		return inst, name, entry, nil
	}

	var found []string
	for _, g := range m.order {
		if _, ok := m.graphs[g].def.Entry(entry); ok {
			found = append(found, g)
		}
	}
	switch len(found) {
	case 0:
		return nil, "", "", &domain.EvalError{Entry: entry, Kind: domain.ErrUnknownEntryPoint}
	case 1:
		return m.graphs[found[0]], found[0], entry, nil
	default:
		return nil, "", "", &domain.EvalError{Entry: entry, Kind: domain.ErrAmbiguousEntryPoint,
			Err: fmt.Errorf("defined by %s", strings.Join(found, ", "))}
	}
}

// Var returns a global variable.
func (m *Manager) Var(name string) (any, bool) {
	v, ok := m.vars[name]
	return v, ok
}

// SetVar sets a global variable. A nil value deletes it.
func (m *Manager) SetVar(name string, value any) {
	if value == nil {
		delete(m.vars, name)
		return
	}
	m.vars[name] = value
}

// Vars returns a copy of the global variables.
func (m *Manager) Vars() map[string]any {
	return maps.Clone(m.vars)
}

// ResetState forgets the state of every stateful instance of a graph.
func (m *Manager) ResetState(name string) bool {
	inst, ok := m.graphs[name]
	if !ok {
		return false
	}
	inst.slots.Reset()
	return true
}

// Snapshot captures the stateful node state of an installed graph.
func (m *Manager) Snapshot(name string) (*domain.StateSnapshot, error) {
	inst, ok := m.graphs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)
	}
	snap := inst.slots.Snapshot()
	snap.Graph = name
	snap.SavedAt = m.now()
	return snap, nil
}

// SaveState persists the stateful node state of a graph to the state store.
func (m *Manager) SaveState(ctx context.Context, name string) error {
	if m.store == nil {
		return errors.New("no state store configured")
	}
	snap, err := m.Snapshot(name)
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, name, snap); err != nil {
		return fmt.Errorf("save state %s: %w", name, err)
	}
	m.logger.Debug("state saved", "graph", name, "nodes", len(snap.Nodes))
	return nil
}

// SaveAll persists the state of every installed graph.
func (m *Manager) SaveAll(ctx context.Context) error {
	var errs []error
	for _, name := range m.Graphs() {
		if err := m.SaveState(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RestoreState loads the persisted state of a graph. It returns
// domain.ErrStateNotFound when nothing was saved.
func (m *Manager) RestoreState(ctx context.Context, name string) error {
	if m.store == nil {
		return errors.New("no state store configured")
	}
	inst, ok := m.graphs[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrGraphNotFound, name)
	}
	snap, err := m.store.Load(ctx, name)
	if err != nil {
		return err
	}
	n := inst.slots.Restore(snap)
	m.logger.Info("state restored", "graph", name, "nodes", n)
	return nil
}
