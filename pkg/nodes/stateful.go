package nodes

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

func statefulDescriptors() []registry.NodeDescriptor {
	return []registry.NodeDescriptor{
		{
			Type:        TypeCounter,
			Description: "Adds step on every evaluation; reset returns to the \"start\" parameter.",
			Inputs: []domain.SlotSpec{
				domain.SlotWithDefault("step", schema.Number, 1),
				domain.SlotWithDefault("reset", schema.Bool, false),
			},
			Outputs: []domain.SlotSpec{domain.Slot("count", schema.Number)},
			Behavior: &registry.Stateful{
				Init: func(params map[string]any) (any, error) {
					return startValue(params), nil
				},
				Step: func(_ context.Context, c *registry.Call, state any) (registry.Outputs, any, error) {
					count, _ := state.(float64)
					if c.Bool("reset") {
						count = startValue(c.Params)
					} else {
						count += c.Number("step")
					}
					return registry.Outputs{"count": count}, count, nil
				},
			},
		},
		{
			Type:        TypeToggle,
			Description: "Flips its state on every evaluation, starting from the \"initial\" parameter.",
			Outputs:     []domain.SlotSpec{domain.Slot("state", schema.Bool)},
			Behavior: &registry.Stateful{
				Init: func(params map[string]any) (any, error) {
					v, _ := params["initial"].(bool)
					return v, nil
				},
				Step: func(_ context.Context, _ *registry.Call, state any) (registry.Outputs, any, error) {
					on, _ := state.(bool)
					on = !on
					return registry.Outputs{"state": on}, on, nil
				},
			},
		},
		{
			Type:        TypeLatch,
			Description: "Remembers a set signal until reset.",
			Inputs: []domain.SlotSpec{
				domain.SlotWithDefault("set", schema.Bool, false),
				domain.SlotWithDefault("reset", schema.Bool, false),
			},
			Outputs: []domain.SlotSpec{domain.Slot("value", schema.Bool)},
			Behavior: &registry.Stateful{
				Step: func(_ context.Context, c *registry.Call, state any) (registry.Outputs, any, error) {
					on, _ := state.(bool)
					switch {
					case c.Bool("reset"):
						on = false
					case c.Bool("set"):
						on = true
					}
					return registry.Outputs{"value": on}, on, nil
				},
			},
		},
	}
}

func startValue(params map[string]any) float64 {
	v, err := schema.Coerce(schema.Number, params["start"])
	if err != nil {
		return 0
	}
	return v.(float64)
}
