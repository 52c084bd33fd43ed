package registry

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/schema"
)

// Outputs maps output slot names to values.
type Outputs = map[string]any

// Call carries everything a behavior may use for one invocation.
// Inputs are already resolved and coerced to their slot kinds.
type Call struct {
	Graph  string
	Node   string
	Type   string
	Inputs map[string]any
	Params map[string]any

	// Capabilities. They are nil for pure behaviors.
	Host   ports.Host
	Events ports.EventSink
	Vars   ports.Variables
}

// Value returns an input value and whether it was resolved.
func (c *Call) Value(name string) (any, bool) {
	v, ok := c.Inputs[name]
	return v, ok
}

// Number returns a number input, or 0 when absent.
func (c *Call) Number(name string) float64 {
	v, _ := c.Inputs[name].(float64)
	return v
}

// Bool returns a bool input, or false when absent.
func (c *Call) Bool(name string) bool {
	v, _ := c.Inputs[name].(bool)
	return v
}

// Text returns a text input, or "" when absent.
func (c *Call) Text(name string) string {
	v, _ := c.Inputs[name].(string)
	return v
}

// Entity returns an entity input, or "" when absent.
func (c *Call) Entity(name string) schema.EntityRef {
	v, _ := c.Inputs[name].(schema.EntityRef)
	return v
}

// Behavior is the closed set of node behaviors: Pure, Effectful and *Stateful.
type Behavior interface {
	Category() domain.Category
	sealed()
}

// Pure computes outputs from inputs only. It must not retain or mutate
// anything outside the call.
type Pure func(ctx context.Context, call *Call) (Outputs, error)

func (Pure) Category() domain.Category { return domain.CategoryPure }
func (Pure) sealed()                   {}

// Effectful may use the host capabilities. It runs at most once per event.
type Effectful func(ctx context.Context, call *Call) (Outputs, error)

func (Effectful) Category() domain.Category { return domain.CategoryEffectful }
func (Effectful) sealed()                   {}

// Stateful carries per-instance state across events.
type Stateful struct {
	// Init returns the initial state of an instance. A nil Init starts from nil.
	Init func(params map[string]any) (any, error)

	// Step runs one evaluation and returns the outputs and the next state.
	// The next state is committed only when Step succeeds.
	Step func(ctx context.Context, call *Call, state any) (Outputs, any, error)
}

func (*Stateful) Category() domain.Category { return domain.CategoryStateful }
func (*Stateful) sealed()                   {}
