package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/graph"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

// Evaluator runs graph definitions. It holds no per-event state: everything
// a run needs lives in the ExecutionContext, and stateful node state lives
// in Slots.
type Evaluator struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	host   ports.Host
	events ports.EventSink
	vars   ports.Variables
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) { e.logger = l }
}

// WithHooks sets the lifecycle hooks for node invocations.
func WithHooks(h domain.LifecycleHooks) EvaluatorOption {
	return func(e *Evaluator) { e.hooks = h }
}

// WithHost sets the host handed to effectful and stateful nodes.
func WithHost(h ports.Host) EvaluatorOption {
	return func(e *Evaluator) { e.host = h }
}

// WithEventSink sets the sink for re-entrant events.
func WithEventSink(s ports.EventSink) EvaluatorOption {
	return func(e *Evaluator) { e.events = s }
}

// WithVariables sets the global variable store.
func WithVariables(v ports.Variables) EvaluatorOption {
	return func(e *Evaluator) { e.vars = v }
}

// NewEvaluator creates an evaluator.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.host = guard(e.host)
	return e
}

// RunEntry evaluates the entry node with the given payload and then every
// node downstream of it. It returns the outputs of the entry node.
func (e *Evaluator) RunEntry(ctx context.Context, def *graph.Definition, slots *Slots, entry string, payload map[string]any) (map[string]any, error) {
	idx, ok := def.Entry(entry)
	if !ok {
		return nil, &domain.EvalError{Entry: entry, Kind: domain.ErrUnknownEntryPoint}
	}

	node := def.Node(idx)
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := node.Descriptor.Input(k); !ok {
			return nil, &domain.EvalError{
				Entry: entry, Node: node.ID, Slot: k, Kind: domain.ErrUnknownSlot,
				Err: fmt.Errorf("%s has no input %q", node.Type, k),
			}
		}
	}

	run := NewExecutionContext(def, slots, idx, payload)
	var outputs map[string]any
	for n, i := range def.Plan(entry) {
		out, err := e.Evaluate(ctx, run, i)
		if err != nil {
			var ee *domain.EvalError
			if errors.As(err, &ee) && ee.Entry == "" {
				ee.Entry = entry
			}
			return nil, err
		}
		if n == 0 {
			outputs = out
		}
	}

	e.logger.Debug("entry evaluated", "graph", def.Name(), "entry", entry, "invocations", run.Invocations())
	return outputs, nil
}

// Evaluate returns the outputs of node i, computing and memoizing them on
// first use within run.
func (e *Evaluator) Evaluate(ctx context.Context, run *ExecutionContext, i int) (map[string]any, error) {
	if out, ok := run.Cached(i); ok {
		return out, nil
	}

	node := run.def.Node(i)
	if run.inProgress[i] {
		return nil, &domain.EvalError{Node: node.ID, Kind: domain.ErrCycleDetected}
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.EvalError{Node: node.ID, Kind: domain.ErrNodeFailed, Err: err}
	}

	run.inProgress[i] = true
	defer func() { run.inProgress[i] = false }()

	inputs, err := e.resolveInputs(ctx, run, node)
	if err != nil {
		return nil, err
	}

	out, err := e.invoke(ctx, run, node, inputs)
	if err != nil {
		return nil, err
	}
	run.store(i, out)
	return out, nil
}

func (e *Evaluator) resolveInputs(ctx context.Context, run *ExecutionContext, node *graph.Node) (map[string]any, error) {
	inputs := make(map[string]any, len(node.Descriptor.Inputs))
	for _, slot := range node.Descriptor.Inputs {
		v, ok, err := e.resolve(ctx, run, node, slot)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		cv, err := schema.Coerce(slot.Kind, v)
		if err != nil {
			return nil, &domain.EvalError{Node: node.ID, Slot: slot.Name, Kind: domain.ErrTypeMismatch, Err: err}
		}
		inputs[slot.Name] = cv
	}
	return inputs, nil
}

// resolve applies the input precedence: connection, payload (entry node
// only), static parameter, slot default. Optional slots may stay unset.
func (e *Evaluator) resolve(ctx context.Context, run *ExecutionContext, node *graph.Node, slot domain.SlotSpec) (any, bool, error) {
	if src, ok := node.Sources[slot.Name]; ok {
		upstream, err := e.Evaluate(ctx, run, src.Node)
		if err != nil {
			return nil, false, err
		}
		if v, ok := upstream[src.Slot]; ok {
			return v, true, nil
		}
	}
	if node.Index == run.entry {
		if v, ok := run.payload[slot.Name]; ok {
			return v, true, nil
		}
	}
	if v, ok := node.Params[slot.Name]; ok {
		return v, true, nil
	}
	if slot.Default != nil {
		return slot.Default, true, nil
	}
	if slot.Optional {
		return nil, false, nil
	}
	return nil, false, &domain.EvalError{Node: node.ID, Slot: slot.Name, Kind: domain.ErrMissingRequiredInput}
}

func (e *Evaluator) invoke(ctx context.Context, run *ExecutionContext, node *graph.Node, inputs map[string]any) (map[string]any, error) {
	category := node.Category()
	hook := &domain.NodeHook{
		HookBase: domain.HookBase{Timestamp: time.Now(), Type: domain.HookNodeEnter},
		Graph:    run.def.Name(),
		NodeID:   node.ID,
		NodeType: node.Type,
		Category: category,
	}
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, hook)
	}

	run.invoked++
	start := time.Now()
	raw, err := e.dispatch(ctx, run, node, inputs)

	if e.hooks.OnNodeLeave != nil {
		leave := *hook
		leave.Timestamp = time.Now()
		leave.Type = domain.HookNodeLeave
		leave.Duration = time.Since(start)
		leave.Err = err
		e.hooks.OnNodeLeave(ctx, &leave)
	}

	if err != nil {
		kind := domain.ErrNodeFailed
		if errors.Is(err, domain.ErrHostCapability) {
			kind = domain.ErrHostCapability
		}
		e.logger.Debug("node failed", "graph", run.def.Name(), "node", node.ID, "type", node.Type, "error", err)
		return nil, &domain.EvalError{Node: node.ID, Kind: kind, Err: err}
	}

	return outputs(node, raw)
}

// dispatch runs the node behavior and converts panics into errors.
func (e *Evaluator) dispatch(ctx context.Context, run *ExecutionContext, node *graph.Node, inputs map[string]any) (out registry.Outputs, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	call := &registry.Call{
		Graph:  run.def.Name(),
		Node:   node.ID,
		Type:   node.Type,
		Inputs: inputs,
		Params: node.Params,
	}

	switch b := node.Descriptor.Behavior.(type) {
	case registry.Pure:
		return b(ctx, call)

	case registry.Effectful:
		e.attach(call)
		return b(ctx, call)

	case *registry.Stateful:
		e.attach(call)
		state, ok := run.slots.Get(node.Index)
		if !ok && b.Init != nil {
			if state, err = b.Init(node.Params); err != nil {
				return nil, fmt.Errorf("init state: %w", err)
			}
		}
		out, next, err := b.Step(ctx, call, state)
		if err != nil {
			return nil, err
		}
		run.slots.Set(node.Index, next)
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported behavior %T", b)
	}
}

func (e *Evaluator) attach(call *registry.Call) {
	call.Host = e.host
	call.Events = e.events
	call.Vars = e.vars
}

// outputs keeps the declared outputs, coerced to their kinds.
func outputs(node *graph.Node, raw registry.Outputs) (map[string]any, error) {
	out := make(map[string]any, len(node.Descriptor.Outputs))
	for _, slot := range node.Descriptor.Outputs {
		v, ok := raw[slot.Name]
		if !ok {
			continue
		}
		cv, err := schema.Coerce(slot.Kind, v)
		if err != nil {
			return nil, &domain.EvalError{Node: node.ID, Slot: slot.Name, Kind: domain.ErrTypeMismatch, Err: err}
		}
		out[slot.Name] = cv
	}
	return out, nil
}
