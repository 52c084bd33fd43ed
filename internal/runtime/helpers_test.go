package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

// probe counts behavior invocations per node type.
type probe struct {
	calls map[string]int
	seen  []map[string]any
}

func newProbe() *probe { return &probe{calls: make(map[string]int)} }

func (p *probe) registry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.MustRegister(
		registry.NodeDescriptor{
			Type:    "source",
			Inputs:  []domain.SlotSpec{domain.SlotWithDefault("value", schema.Number, 1)},
			Outputs: []domain.SlotSpec{domain.Slot("out", schema.Number)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				p.calls["source"]++
				return registry.Outputs{"out": c.Number("value")}, nil
			}),
		},
		registry.NodeDescriptor{
			Type:    "double",
			Inputs:  []domain.SlotSpec{domain.Slot("in", schema.Number)},
			Outputs: []domain.SlotSpec{domain.Slot("out", schema.Number)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				p.calls["double"]++
				return registry.Outputs{"out": c.Number("in") * 2, "ignored": true}, nil
			}),
		},
		registry.NodeDescriptor{
			Type: "join",
			Inputs: []domain.SlotSpec{
				domain.Slot("a", schema.Number),
				domain.Slot("b", schema.Number),
			},
			Outputs: []domain.SlotSpec{domain.Slot("sum", schema.Number)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				p.calls["join"]++
				return registry.Outputs{"sum": c.Number("a") + c.Number("b")}, nil
			}),
		},
		registry.NodeDescriptor{
			Type:    "effect",
			Inputs:  []domain.SlotSpec{domain.OptionalSlot("value", schema.Any)},
			Outputs: []domain.SlotSpec{domain.Slot("out", schema.Any)},
			Behavior: registry.Effectful(func(ctx context.Context, c *registry.Call) (registry.Outputs, error) {
				p.calls["effect"]++
				p.seen = append(p.seen, c.Inputs)
				if c.Params["emit"] == true {
					if err := c.Host.Emit(ctx, "effect", c.Inputs["value"]); err != nil {
						return nil, err
					}
				}
				return registry.Outputs{"out": c.Inputs["value"]}, nil
			}),
		},
		registry.NodeDescriptor{
			Type:   "tally",
			Inputs: []domain.SlotSpec{domain.SlotWithDefault("step", schema.Number, 1)},
			Outputs: []domain.SlotSpec{
				domain.Slot("count", schema.Number),
			},
			Behavior: &registry.Stateful{
				Init: func(params map[string]any) (any, error) {
					if v, ok := params["start"].(float64); ok {
						return v, nil
					}
					return 0.0, nil
				},
				Step: func(_ context.Context, c *registry.Call, state any) (registry.Outputs, any, error) {
					p.calls["tally"]++
					if c.Number("step") < 0 {
						return nil, nil, errors.New("negative step")
					}
					next := state.(float64) + c.Number("step")
					return registry.Outputs{"count": next}, next, nil
				},
			},
		},
		registry.NodeDescriptor{
			Type:   "boom",
			Inputs: []domain.SlotSpec{domain.OptionalSlot("in", schema.Any)},
			Behavior: registry.Pure(func(context.Context, *registry.Call) (registry.Outputs, error) {
				panic("kaboom")
			}),
		},
		registry.NodeDescriptor{
			Type:    "liar",
			Outputs: []domain.SlotSpec{domain.Slot("n", schema.Number)},
			Behavior: registry.Pure(func(context.Context, *registry.Call) (registry.Outputs, error) {
				return registry.Outputs{"n": "not a number"}, nil
			}),
		},
		registry.NodeDescriptor{
			Type:    "relay",
			Inputs:  []domain.SlotSpec{domain.OptionalSlot("in", schema.Any)},
			Outputs: []domain.SlotSpec{domain.Slot("out", schema.Any)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				return registry.Outputs{"out": c.Inputs["in"]}, nil
			}),
		},
	)
	return r
}

// recordingHost is a minimal ports.Host for evaluator tests.
type recordingHost struct {
	emitted []any
	fail    error
}

func (h *recordingHost) Get(context.Context, schema.EntityRef, string) (any, bool, error) {
	return nil, false, h.fail
}

func (h *recordingHost) Set(context.Context, schema.EntityRef, string, any) error { return h.fail }

func (h *recordingHost) Emit(_ context.Context, _ string, v any) error {
	if h.fail != nil {
		return h.fail
	}
	h.emitted = append(h.emitted, v)
	return nil
}
