package schema

import (
	"fmt"
	"strings"
)

// Kind is the value kind carried by a slot.
// The set is closed: number, bool, text, entity and the wildcard any.
type Kind string

const (
	Number Kind = "number"
	Bool   Kind = "bool"
	Text   Kind = "text"
	Entity Kind = "entity"
	Any    Kind = "any"
)

// EntityRef is an opaque handle to an entity owned by the host.
type EntityRef string

// Name returns the canonical kind name.
func (k Kind) Name() string { return string(k) }

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case Number, Bool, Text, Entity, Any:
		return true
	}
	return false
}

// Validate checks that value can be carried by a slot of this kind.
func (k Kind) Validate(value any) error {
	_, err := Coerce(k, value)
	return err
}

// Compatible reports whether a connection from a slot of kind source
// into a slot of kind target is allowed.
func Compatible(source, target Kind) bool {
	return source == target || source == Any || target == Any
}

// ParseKind converts a kind name to a Kind.
// Besides the canonical names it accepts a few common aliases
// ("string", "int", "float", "entity_ref").
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "number", "int", "float", "num":
		return Number, nil
	case "bool", "boolean":
		return Bool, nil
	case "text", "string":
		return Text, nil
	case "entity", "entity_ref", "ref":
		return Entity, nil
	case "any", "":
		return Any, nil
	default:
		return "", fmt.Errorf("unsupported kind: %s", name)
	}
}

// ParseKindMap converts a map of field names to kind names into a Schema.
// Example: {"threshold": "number", "label": "text"}
func ParseKindMap(kinds map[string]string) (Schema, error) {
	result := make(Schema, len(kinds))
	for key, name := range kinds {
		k, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = k
	}
	return result, nil
}
