package compiler

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/tendril/internal/dto"
	"github.com/aretw0/tendril/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a graph asset.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".hcl":
		return FormatHCL, true
	}
	return "", false
}

// Parser is responsible for converting raw asset bytes into a GraphSpec.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes data in the given format. name is used when the document
// does not declare its own; filename only labels HCL diagnostics.
func (p *Parser) Parse(name, filename string, format Format, data []byte) (domain.GraphSpec, error) {
	var (
		doc dto.GraphDocument
		err error
	)
	switch format {
	case FormatJSON, FormatYAML:
		// YAML is a superset of JSON, so one decoder serves both.
		doc, err = decodeYAML(data)
	case FormatHCL:
		doc, err = decodeHCL(filename, data)
	default:
		return domain.GraphSpec{}, fmt.Errorf("unsupported graph format %q", format)
	}
	if err != nil {
		return domain.GraphSpec{}, fmt.Errorf("parse %s: %w", name, err)
	}
	return doc.ToSpec(name)
}

// ParseFile is Parse with the format derived from filename.
func (p *Parser) ParseFile(name, filename string, data []byte) (domain.GraphSpec, error) {
	format, ok := FormatOf(filename)
	if !ok {
		return domain.GraphSpec{}, fmt.Errorf("unsupported graph file %s", filename)
	}
	return p.Parse(name, filename, format, data)
}

func decodeYAML(data []byte) (dto.GraphDocument, error) {
	var raw map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return dto.GraphDocument{}, err
	}
	return dto.Decode(raw)
}
