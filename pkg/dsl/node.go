package dsl

import (
	"maps"

	"github.com/aretw0/tendril/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node. It forwards
// the graph-level calls to its Builder so a whole graph reads as one chain.
type NodeBuilder struct {
	builder *Builder
	index   int
}

func (n *NodeBuilder) instance() *domain.NodeInstance {
	return &n.builder.spec.Nodes[n.index]
}

// Param sets a static parameter.
func (n *NodeBuilder) Param(key string, value any) *NodeBuilder {
	inst := n.instance()
	if inst.Params == nil {
		inst.Params = make(map[string]any)
	}
	inst.Params[key] = value
	return n
}

// Params merges several static parameters.
func (n *NodeBuilder) Params(params map[string]any) *NodeBuilder {
	inst := n.instance()
	if inst.Params == nil {
		inst.Params = make(map[string]any, len(params))
	}
	maps.Copy(inst.Params, params)
	return n
}

// To connects output slot of this node to the "node.slot" input.
func (n *NodeBuilder) To(output, target string) *NodeBuilder {
	n.builder.Connect(n.instance().ID+"."+output, target)
	return n
}

// AsEntry exposes this node as an entry point.
func (n *NodeBuilder) AsEntry(name string) *NodeBuilder {
	n.builder.Entry(name, n.instance().ID)
	return n
}

// Node starts the next node.
func (n *NodeBuilder) Node(id, typeID string) *NodeBuilder { return n.builder.Node(id, typeID) }

// Connect forwards to Builder.Connect.
func (n *NodeBuilder) Connect(from, to string) *Builder { return n.builder.Connect(from, to) }

// Entry forwards to Builder.Entry.
func (n *NodeBuilder) Entry(name, node string) *Builder { return n.builder.Entry(name, node) }

// Build forwards to Builder.Build.
func (n *NodeBuilder) Build() (domain.GraphSpec, error) { return n.builder.Build() }
