package nodes

import (
	"context"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

func textDescriptors() []registry.NodeDescriptor {
	return []registry.NodeDescriptor{
		{
			Type: TypeConcat,
			Inputs: []domain.SlotSpec{
				domain.Slot("a", schema.Text),
				domain.Slot("b", schema.Text),
				domain.SlotWithDefault("sep", schema.Text, ""),
			},
			Outputs: []domain.SlotSpec{domain.Slot("out", schema.Text)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				return registry.Outputs{"out": c.Text("a") + c.Text("sep") + c.Text("b")}, nil
			}),
		},
		{
			Type:        TypeFormat,
			Description: "Replaces every {} in template with the formatted value.",
			Inputs: []domain.SlotSpec{
				domain.Slot("template", schema.Text),
				domain.OptionalSlot("value", schema.Any),
			},
			Outputs: []domain.SlotSpec{domain.Slot("out", schema.Text)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				out := strings.ReplaceAll(c.Text("template"), "{}", Format(c.Inputs["value"]))
				return registry.Outputs{"out": out}, nil
			}),
		},
	}
}
