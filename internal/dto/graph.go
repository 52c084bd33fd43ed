package dto

import (
	"fmt"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// GraphDocument is the on-disk shape of a graph asset.
// It uses "mapstructure" tags so JSON, YAML and frontmatter decode the same way.
type GraphDocument struct {
	Name        string               `json:"name,omitempty" mapstructure:"name"`
	Description string               `json:"description,omitempty" mapstructure:"description"`
	Nodes       []NodeDocument       `json:"nodes" mapstructure:"nodes"`
	Connections []ConnectionDocument `json:"connections,omitempty" mapstructure:"connections"`
	EntryPoints map[string]string    `json:"entry_points" mapstructure:"entry_points"`
}

// NodeDocument is one node instance of a GraphDocument.
type NodeDocument struct {
	ID     string         `json:"id" mapstructure:"id"`
	Type   string         `json:"type" mapstructure:"type"`
	Params map[string]any `json:"params,omitempty" mapstructure:"params"`
}

// ConnectionDocument uses the compact "node.slot" endpoint form.
type ConnectionDocument struct {
	From string `json:"from" mapstructure:"from"`
	To   string `json:"to" mapstructure:"to"`
}

// Decode maps a generic document (as produced by a JSON or YAML decoder) onto a GraphDocument.
// Unknown keys are rejected.
func Decode(raw map[string]any) (GraphDocument, error) {
	var doc GraphDocument
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
	})
	if err != nil {
		return doc, err
	}
	if err := dec.Decode(raw); err != nil {
		return doc, fmt.Errorf("decode graph document: %w", err)
	}
	return doc, nil
}

// ToSpec converts the document into a GraphSpec. fallbackName is used when
// the document does not name itself.
func (d GraphDocument) ToSpec(fallbackName string) (domain.GraphSpec, error) {
	spec := domain.GraphSpec{
		Name:        d.Name,
		Description: d.Description,
		Nodes:       make([]domain.NodeInstance, 0, len(d.Nodes)),
		EntryPoints: d.EntryPoints,
	}
	if spec.Name == "" {
		spec.Name = fallbackName
	}
	if spec.EntryPoints == nil {
		spec.EntryPoints = map[string]string{}
	}

	for _, n := range d.Nodes {
		spec.Nodes = append(spec.Nodes, domain.NodeInstance{ID: n.ID, Type: n.Type, Params: n.Params})
	}
	for i, c := range d.Connections {
		from, err := domain.ParseEndpoint(c.From)
		if err != nil {
			return domain.GraphSpec{}, fmt.Errorf("connection %d: %w", i, err)
		}
		to, err := domain.ParseEndpoint(c.To)
		if err != nil {
			return domain.GraphSpec{}, fmt.Errorf("connection %d: %w", i, err)
		}
		spec.Connections = append(spec.Connections, domain.Connection{From: from, To: to})
	}
	return spec, nil
}

// FromSpec is the inverse of ToSpec.
func FromSpec(spec domain.GraphSpec) GraphDocument {
	doc := GraphDocument{
		Name:        spec.Name,
		Description: spec.Description,
		Nodes:       make([]NodeDocument, 0, len(spec.Nodes)),
		EntryPoints: spec.EntryPoints,
	}
	for _, n := range spec.Nodes {
		doc.Nodes = append(doc.Nodes, NodeDocument{ID: n.ID, Type: n.Type, Params: n.Params})
	}
	for _, c := range spec.Connections {
		doc.Connections = append(doc.Connections, ConnectionDocument{From: c.From.String(), To: c.To.String()})
	}
	return doc
}
