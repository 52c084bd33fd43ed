package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	spec  domain.GraphSpec
	index map[string]int
	errs  []error
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		spec: domain.GraphSpec{
			Name:        name,
			EntryPoints: make(map[string]string),
		},
		index: make(map[string]int),
	}
}

// Node adds a node instance of the given type.
// If the node already exists, it returns its builder and keeps the original type.
func (b *Builder) Node(id, typeID string) *NodeBuilder {
	if i, ok := b.index[id]; ok {
		if b.spec.Nodes[i].Type != typeID {
			b.errs = append(b.errs, fmt.Errorf("node %s redeclared as %s (was %s)", id, typeID, b.spec.Nodes[i].Type))
		}
		return &NodeBuilder{builder: b, index: i}
	}
	b.index[id] = len(b.spec.Nodes)
	b.spec.Nodes = append(b.spec.Nodes, domain.NodeInstance{ID: id, Type: typeID})
	return &NodeBuilder{builder: b, index: b.index[id]}
}

// Connect wires an output to an input. Both endpoints use the "node.slot" form.
func (b *Builder) Connect(from, to string) *Builder {
	src, err := domain.ParseEndpoint(from)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	dst, err := domain.ParseEndpoint(to)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.spec.Connections = append(b.spec.Connections, domain.Connection{From: src, To: dst})
	return b
}

// Entry exposes node as the entry point name.
func (b *Builder) Entry(name, node string) *Builder {
	b.spec.EntryPoints[name] = node
	return b
}

// Build returns the graph spec. Structural validation happens when the
// spec is installed; Build only reports malformed builder calls.
func (b *Builder) Build() (domain.GraphSpec, error) {
	if len(b.errs) > 0 {
		return domain.GraphSpec{}, fmt.Errorf("dsl %s: %w", b.spec.Name, errors.Join(b.errs...))
	}
	return b.spec.Clone(), nil
}

// Loader compiles the graph into a memory loader.
func (b *Builder) Loader() (*memory.Loader, error) {
	spec, err := b.Build()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewLoader(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
