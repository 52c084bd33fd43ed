package graph

import (
	"sort"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
)

// Port addresses a slot on a node by arena index.
type Port struct {
	Node int
	Slot string
}

// Node is one compiled instance.
type Node struct {
	Index      int
	ID         string
	Type       string
	Descriptor *registry.NodeDescriptor

	// Params holds the static parameters, coerced to slot kinds where a
	// parameter names an input slot.
	Params map[string]any

	// Sources maps an input slot to the output feeding it.
	Sources map[string]Port
	// Targets maps an output slot to the inputs it feeds, in declaration order.
	Targets map[string][]Port
}

// Category returns the behavior category of the node.
func (n *Node) Category() domain.Category { return n.Descriptor.Category() }

// Definition is a validated graph. It is immutable and safe to share.
type Definition struct {
	name    string
	spec    domain.GraphSpec
	nodes   []Node
	index   map[string]int
	entries map[string]int
	plans   map[string][]int
}

// Name returns the graph name.
func (d *Definition) Name() string { return d.name }

// Spec returns the description the definition was built from.
// The returned value must be treated as read-only.
func (d *Definition) Spec() domain.GraphSpec { return d.spec }

// Len returns the number of instances.
func (d *Definition) Len() int { return len(d.nodes) }

// Node returns the instance at index i.
func (d *Definition) Node(i int) *Node { return &d.nodes[i] }

// Lookup returns the instance with the given id.
func (d *Definition) Lookup(id string) (*Node, bool) {
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return &d.nodes[i], true
}

// Entry returns the arena index of an entry point.
func (d *Definition) Entry(name string) (int, bool) {
	i, ok := d.entries[name]
	return i, ok
}

// EntryNames returns the entry point names in lexical order.
func (d *Definition) EntryNames() []string {
	names := make([]string, 0, len(d.entries))
	for n := range d.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Plan returns the push order of an entry point: the entry node followed by
// every node downstream of it, in topological order.
func (d *Definition) Plan(entry string) []int {
	return d.plans[entry]
}

// Stateful returns the indices of every stateful instance.
func (d *Definition) Stateful() []int {
	var out []int
	for i := range d.nodes {
		if d.nodes[i].Category() == domain.CategoryStateful {
			out = append(out, i)
		}
	}
	return out
}
