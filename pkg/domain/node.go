package domain

import "github.com/aretw0/tendril/pkg/schema"

// Category classifies how a node type interacts with the world.
type Category string

const (
	// CategoryPure nodes compute outputs from inputs alone.
	CategoryPure Category = "pure"
	// CategoryEffectful nodes may touch the host and run exactly once per event.
	CategoryEffectful Category = "effectful"
	// CategoryStateful nodes carry instance state across events.
	CategoryStateful Category = "stateful"
)

// SlotSpec declares one input or output slot of a node type.
type SlotSpec struct {
	Name string      `json:"name" yaml:"name"`
	Kind schema.Kind `json:"kind" yaml:"kind"`

	// Default is used for an unconnected input when neither the payload nor
	// the static parameters provide a value. A nil Default makes the input
	// required unless Optional is set.
	Default any `json:"default,omitempty" yaml:"default,omitempty"`

	// Optional inputs resolve to "absent" instead of failing the evaluation.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Slot is shorthand for a required slot.
func Slot(name string, kind schema.Kind) SlotSpec {
	return SlotSpec{Name: name, Kind: kind}
}

// SlotWithDefault is shorthand for an input slot with a default value.
func SlotWithDefault(name string, kind schema.Kind, def any) SlotSpec {
	return SlotSpec{Name: name, Kind: kind, Default: def}
}

// OptionalSlot is shorthand for an input slot that may stay unresolved.
func OptionalSlot(name string, kind schema.Kind) SlotSpec {
	return SlotSpec{Name: name, Kind: kind, Optional: true}
}

// NodeInstance places a node type inside a graph.
type NodeInstance struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`

	// Params holds static parameters. A parameter named after an input slot
	// also acts as that slot's value when the slot is not connected.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}
