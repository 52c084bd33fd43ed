package registry

import (
	"fmt"
	"sort"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/schema"
)

// NodeDescriptor describes a node type.
type NodeDescriptor struct {
	Type        string
	Description string
	Inputs      []domain.SlotSpec
	Outputs     []domain.SlotSpec

	// Params lists required static parameters and their kinds.
	Params schema.Schema

	Behavior Behavior
}

// Category returns the behavior category of the node type.
func (d *NodeDescriptor) Category() domain.Category {
	return d.Behavior.Category()
}

// Input returns the input slot with the given name.
func (d *NodeDescriptor) Input(name string) (domain.SlotSpec, bool) {
	return findSlot(d.Inputs, name)
}

// Output returns the output slot with the given name.
func (d *NodeDescriptor) Output(name string) (domain.SlotSpec, bool) {
	return findSlot(d.Outputs, name)
}

func findSlot(slots []domain.SlotSpec, name string) (domain.SlotSpec, bool) {
	for _, s := range slots {
		if s.Name == name {
			return s, true
		}
	}
	return domain.SlotSpec{}, false
}

func (d *NodeDescriptor) validate() error {
	if d.Type == "" {
		return fmt.Errorf("%w: empty type", domain.ErrInvalidDescriptor)
	}
	if d.Behavior == nil {
		return fmt.Errorf("%w: %s has no behavior", domain.ErrInvalidDescriptor, d.Type)
	}
	if s, ok := d.Behavior.(*Stateful); ok && (s == nil || s.Step == nil) {
		return fmt.Errorf("%w: %s stateful behavior has no step", domain.ErrInvalidDescriptor, d.Type)
	}
	for dir, slots := range map[string][]domain.SlotSpec{"input": d.Inputs, "output": d.Outputs} {
		seen := make(map[string]bool, len(slots))
		for _, s := range slots {
			if s.Name == "" {
				return fmt.Errorf("%w: %s has an unnamed %s slot", domain.ErrInvalidDescriptor, d.Type, dir)
			}
			if seen[s.Name] {
				return fmt.Errorf("%w: %s declares %s slot %q twice", domain.ErrInvalidDescriptor, d.Type, dir, s.Name)
			}
			seen[s.Name] = true
			if !s.Kind.Valid() {
				return fmt.Errorf("%w: %s %s slot %q has kind %q", domain.ErrInvalidDescriptor, d.Type, dir, s.Name, s.Kind)
			}
			if s.Default != nil {
				if _, err := schema.Coerce(s.Kind, s.Default); err != nil {
					return fmt.Errorf("%w: %s default of %q: %v", domain.ErrInvalidDescriptor, d.Type, s.Name, err)
				}
			}
		}
	}
	return nil
}

// Registry maps node type ids to descriptors.
//
// It is write-once/read-many: register every type during setup, before the
// registry is shared with graph builds. It is not safe for concurrent
// registration.
type Registry struct {
	descriptors map[string]*NodeDescriptor
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		descriptors: make(map[string]*NodeDescriptor),
	}
}

// Register adds a node type. It fails with domain.ErrDuplicateNodeType if
// the type id is taken, and with domain.ErrInvalidDescriptor if the
// descriptor is malformed.
func (r *Registry) Register(desc NodeDescriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}
	if _, exists := r.descriptors[desc.Type]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateNodeType, desc.Type)
	}
	r.descriptors[desc.Type] = &desc
	return nil
}

// MustRegister registers descriptors and panics on the first failure.
func (r *Registry) MustRegister(descs ...NodeDescriptor) {
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the descriptor of a node type.
// Returns domain.ErrUnknownNodeType when the type is not registered.
func (r *Registry) Lookup(typeID string) (*NodeDescriptor, error) {
	d, ok := r.descriptors[typeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownNodeType, typeID)
	}
	return d, nil
}

// Types returns every registered type id in lexical order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.descriptors))
	for t := range r.descriptors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.descriptors) }
