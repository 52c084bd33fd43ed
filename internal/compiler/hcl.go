package compiler

import (
	"fmt"

	"github.com/aretw0/tendril/internal/dto"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclGraphFile represents the top-level structure of a graph file:
//
//	name = "hello"
//
//	node "two" {
//	  type   = "const"
//	  params = { value = 2 }
//	}
//
//	connect {
//	  from = "two.out"
//	  to   = "add.a"
//	}
//
//	entry "start" {
//	  node = "two"
//	}
type hclGraphFile struct {
	Name        string        `hcl:"name,optional"`
	Description string        `hcl:"description,optional"`
	Nodes       []*hclNode    `hcl:"node,block"`
	Connections []*hclConnect `hcl:"connect,block"`
	Entries     []*hclEntry   `hcl:"entry,block"`
}

type hclNode struct {
	ID     string    `hcl:"id,label"`
	Type   string    `hcl:"type"`
	Params cty.Value `hcl:"params,optional"`
}

type hclConnect struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

type hclEntry struct {
	Name string `hcl:"name,label"`
	Node string `hcl:"node"`
}

func decodeHCL(filename string, data []byte) (dto.GraphDocument, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return dto.GraphDocument{}, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var parsed hclGraphFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return dto.GraphDocument{}, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	doc := dto.GraphDocument{
		Name:        parsed.Name,
		Description: parsed.Description,
		EntryPoints: make(map[string]string, len(parsed.Entries)),
	}
	for _, n := range parsed.Nodes {
		params, err := ctyToNative(n.Params)
		if err != nil {
			return dto.GraphDocument{}, fmt.Errorf("node %s params: %w", n.ID, err)
		}
		node := dto.NodeDocument{ID: n.ID, Type: n.Type}
		if params != nil {
			m, ok := params.(map[string]any)
			if !ok {
				return dto.GraphDocument{}, fmt.Errorf("node %s params: want an object", n.ID)
			}
			node.Params = m
		}
		doc.Nodes = append(doc.Nodes, node)
	}
	for _, c := range parsed.Connections {
		doc.Connections = append(doc.Connections, dto.ConnectionDocument{From: c.From, To: c.To})
	}
	for _, e := range parsed.Entries {
		if _, dup := doc.EntryPoints[e.Name]; dup {
			return dto.GraphDocument{}, fmt.Errorf("entry %q declared twice", e.Name)
		}
		doc.EntryPoints[e.Name] = e.Node
	}
	return doc, nil
}

// ctyToNative recursively converts a cty.Value to its most natural Go counterpart.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert number: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			native, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			native, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
