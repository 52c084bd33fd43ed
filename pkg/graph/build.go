package graph

import (
	"fmt"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

// Build validates spec against the node types in reg and compiles it.
// Every failure is a *domain.GraphError.
func Build(spec domain.GraphSpec, reg *registry.Registry) (*Definition, error) {
	b := &builder{
		reg: reg,
		def: &Definition{
			name:    spec.Name,
			index:   make(map[string]int, len(spec.Nodes)),
			entries: make(map[string]int, len(spec.EntryPoints)),
			plans:   make(map[string][]int, len(spec.EntryPoints)),
		},
	}

	if err := b.addNodes(spec.Nodes); err != nil {
		return nil, err
	}
	for i := range spec.Connections {
		if err := b.connect(spec.Connections[i]); err != nil {
			return nil, err
		}
	}
	if err := b.addEntries(spec); err != nil {
		return nil, err
	}
	if err := b.checkCycles(); err != nil {
		return nil, err
	}
	b.plan()

	b.def.spec = spec.Clone()
	return b.def, nil
}

type builder struct {
	reg *registry.Registry
	def *Definition
}

func (b *builder) fail(kind error, format string, args ...any) *domain.GraphError {
	return &domain.GraphError{Graph: b.def.name, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (b *builder) addNodes(instances []domain.NodeInstance) error {
	for _, inst := range instances {
		if inst.ID == "" {
			return b.fail(domain.ErrInvalidGraph, "instance with empty id (type %q)", inst.Type)
		}
		if _, dup := b.def.index[inst.ID]; dup {
			e := b.fail(domain.ErrInvalidGraph, "duplicate instance id")
			e.Node = inst.ID
			return e
		}

		desc, err := b.reg.Lookup(inst.Type)
		if err != nil {
			e := b.fail(domain.ErrUnknownNodeType, "%s", inst.Type)
			e.Node = inst.ID
			return e
		}

		params, err := b.params(inst, desc)
		if err != nil {
			return err
		}

		b.def.index[inst.ID] = len(b.def.nodes)
		b.def.nodes = append(b.def.nodes, Node{
			Index:      len(b.def.nodes),
			ID:         inst.ID,
			Type:       inst.Type,
			Descriptor: desc,
			Params:     params,
			Sources:    make(map[string]Port),
			Targets:    make(map[string][]Port),
		})
	}
	return nil
}

func (b *builder) params(inst domain.NodeInstance, desc *registry.NodeDescriptor) (map[string]any, error) {
	out := make(map[string]any, len(inst.Params))
	for key, value := range inst.Params {
		kind := schema.Any
		if slot, ok := desc.Input(key); ok {
			kind = slot.Kind
		} else if k, ok := desc.Params[key]; ok {
			kind = k
		}
		v, err := schema.Coerce(kind, value)
		if err != nil {
			e := b.fail(domain.ErrTypeMismatch, "parameter %q: %v", key, err)
			e.Node = inst.ID
			return nil, e
		}
		out[key] = v
	}
	for _, key := range desc.Params.Keys() {
		if _, ok := out[key]; !ok {
			e := b.fail(domain.ErrInvalidGraph, "missing required parameter %q", key)
			e.Node = inst.ID
			return nil, e
		}
	}
	return out, nil
}

func (b *builder) connect(c domain.Connection) error {
	conn := c
	fail := func(kind error, format string, args ...any) error {
		e := b.fail(kind, format, args...)
		e.Connection = &conn
		return e
	}

	src, ok := b.def.index[c.From.Node]
	if !ok {
		return fail(domain.ErrDanglingConnection, "source instance %q does not exist", c.From.Node)
	}
	dst, ok := b.def.index[c.To.Node]
	if !ok {
		return fail(domain.ErrDanglingConnection, "target instance %q does not exist", c.To.Node)
	}

	srcNode, dstNode := &b.def.nodes[src], &b.def.nodes[dst]
	out, ok := srcNode.Descriptor.Output(c.From.Slot)
	if !ok {
		return fail(domain.ErrUnknownSlot, "%s has no output %q", srcNode.Type, c.From.Slot)
	}
	in, ok := dstNode.Descriptor.Input(c.To.Slot)
	if !ok {
		return fail(domain.ErrUnknownSlot, "%s has no input %q", dstNode.Type, c.To.Slot)
	}
	if !schema.Compatible(out.Kind, in.Kind) {
		return fail(domain.ErrTypeMismatch, "%s output is %s, input is %s", c.From, out.Kind, in.Kind)
	}
	if prev, taken := dstNode.Sources[c.To.Slot]; taken {
		return fail(domain.ErrMultipleConnections, "%s is already fed by %s.%s",
			c.To, b.def.nodes[prev.Node].ID, prev.Slot)
	}

	dstNode.Sources[c.To.Slot] = Port{Node: src, Slot: c.From.Slot}
	srcNode.Targets[c.From.Slot] = append(srcNode.Targets[c.From.Slot], Port{Node: dst, Slot: c.To.Slot})
	return nil
}

func (b *builder) addEntries(spec domain.GraphSpec) error {
	for _, name := range spec.EntryNames() {
		id := spec.EntryPoints[name]
		if name == "" {
			return b.fail(domain.ErrInvalidGraph, "entry point with empty name")
		}
		idx, ok := b.def.index[id]
		if !ok {
			e := b.fail(domain.ErrUnknownEntryPoint, "entry %q targets missing instance", name)
			e.Node = id
			return e
		}
		b.def.entries[name] = idx
	}
	return nil
}
