package domain

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Endpoint names a slot on a node instance.
type Endpoint struct {
	Node string `json:"node" yaml:"node"`
	Slot string `json:"slot" yaml:"slot"`
}

func (e Endpoint) String() string { return e.Node + "." + e.Slot }

// ParseEndpoint parses the compact "node.slot" form. The last dot separates
// the slot, so node ids may contain dots.
func ParseEndpoint(s string) (Endpoint, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: want node.slot", s)
	}
	return Endpoint{Node: s[:i], Slot: s[i+1:]}, nil
}

// Connection wires the output slot of one instance to the input slot of another.
type Connection struct {
	From Endpoint `json:"from" yaml:"from"`
	To   Endpoint `json:"to" yaml:"to"`
}

func (c Connection) String() string { return c.From.String() + " -> " + c.To.String() }

// Connect is shorthand for building a Connection.
func Connect(fromNode, fromSlot, toNode, toSlot string) Connection {
	return Connection{
		From: Endpoint{Node: fromNode, Slot: fromSlot},
		To:   Endpoint{Node: toNode, Slot: toSlot},
	}
}

// GraphSpec is the raw description of a graph as loaded from an asset.
// It is validated and compiled by graph.Build before it can run.
type GraphSpec struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []NodeInstance    `json:"nodes" yaml:"nodes"`
	Connections []Connection      `json:"connections,omitempty" yaml:"connections,omitempty"`
	EntryPoints map[string]string `json:"entry_points" yaml:"entry_points"`
}

// EntryNames returns the entry point names in lexical order.
func (g GraphSpec) EntryNames() []string {
	names := make([]string, 0, len(g.EntryPoints))
	for name := range g.EntryPoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Node returns the instance with the given id.
func (g GraphSpec) Node(id string) (NodeInstance, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeInstance{}, false
}

// Clone returns a copy that shares no slices or maps with g.
func (g GraphSpec) Clone() GraphSpec {
	out := GraphSpec{
		Name:        g.Name,
		Description: g.Description,
		Nodes:       make([]NodeInstance, len(g.Nodes)),
		Connections: append([]Connection(nil), g.Connections...),
		EntryPoints: maps.Clone(g.EntryPoints),
	}
	for i, n := range g.Nodes {
		n.Params = maps.Clone(n.Params)
		out.Nodes[i] = n
	}
	return out
}
