package nodes

import (
	"context"
	"errors"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

var (
	errNoEventSink = errors.New("no event sink attached")
	errNoVariables = errors.New("no variable store attached")
)

func effectDescriptors() []registry.NodeDescriptor {
	return []registry.NodeDescriptor{
		{
			Type:        TypePrint,
			Description: "Formats value as text and emits it on topic (default \"print\").",
			Inputs: []domain.SlotSpec{
				domain.Slot("value", schema.Any),
				domain.SlotWithDefault("topic", schema.Text, PrintTopic),
			},
			Outputs: []domain.SlotSpec{domain.Slot("text", schema.Text)},
			Behavior: registry.Effectful(func(ctx context.Context, c *registry.Call) (registry.Outputs, error) {
				text := Format(c.Inputs["value"])
				if err := c.Host.Emit(ctx, c.Text("topic"), text); err != nil {
					return nil, err
				}
				return registry.Outputs{"text": text}, nil
			}),
		},
		{
			Type: TypeEmit,
			Inputs: []domain.SlotSpec{
				domain.Slot("topic", schema.Text),
				domain.Slot("value", schema.Any),
			},
			Outputs: []domain.SlotSpec{domain.Slot("value", schema.Any)},
			Behavior: registry.Effectful(func(ctx context.Context, c *registry.Call) (registry.Outputs, error) {
				if err := c.Host.Emit(ctx, c.Text("topic"), c.Inputs["value"]); err != nil {
					return nil, err
				}
				return registry.Outputs{"value": c.Inputs["value"]}, nil
			}),
		},
		{
			Type:        TypeHostGet,
			Description: "Reads a component of an entity from the host.",
			Inputs: []domain.SlotSpec{
				domain.Slot("entity", schema.Entity),
				domain.Slot("component", schema.Text),
			},
			Outputs: []domain.SlotSpec{
				domain.Slot("value", schema.Any),
				domain.Slot("found", schema.Bool),
			},
			Behavior: registry.Effectful(func(ctx context.Context, c *registry.Call) (registry.Outputs, error) {
				v, ok, err := c.Host.Get(ctx, c.Entity("entity"), c.Text("component"))
				if err != nil {
					return nil, err
				}
				out := registry.Outputs{"found": ok}
				if ok {
					out["value"] = v
				}
				return out, nil
			}),
		},
		{
			Type:        TypeHostSet,
			Description: "Writes a component of an entity on the host.",
			Inputs: []domain.SlotSpec{
				domain.Slot("entity", schema.Entity),
				domain.Slot("component", schema.Text),
				domain.Slot("value", schema.Any),
			},
			Outputs: []domain.SlotSpec{domain.Slot("value", schema.Any)},
			Behavior: registry.Effectful(func(ctx context.Context, c *registry.Call) (registry.Outputs, error) {
				if err := c.Host.Set(ctx, c.Entity("entity"), c.Text("component"), c.Inputs["value"]); err != nil {
					return nil, err
				}
				return registry.Outputs{"value": c.Inputs["value"]}, nil
			}),
		},
		{
			Type:        TypeEnqueue,
			Description: "Schedules an event on entry; value is sent under payload key (default \"value\").",
			Inputs: []domain.SlotSpec{
				domain.Slot("entry", schema.Text),
				domain.OptionalSlot("value", schema.Any),
				domain.SlotWithDefault("key", schema.Text, "value"),
			},
			Outputs: []domain.SlotSpec{domain.Slot("event", schema.Text)},
			Behavior: registry.Effectful(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				if c.Events == nil {
					return nil, errNoEventSink
				}
				var payload map[string]any
				if v, ok := c.Value("value"); ok {
					payload = map[string]any{c.Text("key"): v}
				}
				id := c.Events.Enqueue(c.Text("entry"), payload)
				return registry.Outputs{"event": id}, nil
			}),
		},
		{
			Type:   TypeVarGet,
			Inputs: []domain.SlotSpec{domain.Slot("name", schema.Text)},
			Outputs: []domain.SlotSpec{
				domain.Slot("value", schema.Any),
				domain.Slot("found", schema.Bool),
			},
			Behavior: registry.Effectful(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				if c.Vars == nil {
					return nil, errNoVariables
				}
				v, ok := c.Vars.Var(c.Text("name"))
				out := registry.Outputs{"found": ok}
				if ok {
					out["value"] = v
				}
				return out, nil
			}),
		},
		{
			Type: TypeVarSet,
			Inputs: []domain.SlotSpec{
				domain.Slot("name", schema.Text),
				domain.Slot("value", schema.Any),
			},
			Outputs: []domain.SlotSpec{domain.Slot("value", schema.Any)},
			Behavior: registry.Effectful(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				if c.Vars == nil {
					return nil, errNoVariables
				}
				c.Vars.SetVar(c.Text("name"), c.Inputs["value"])
				return registry.Outputs{"value": c.Inputs["value"]}, nil
			}),
		},
	}
}
