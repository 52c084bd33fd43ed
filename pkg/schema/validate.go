package schema

import "sort"

// Schema is a map of field names to their expected kinds.
// Example: {"value": Number, "label": Text}
type Schema map[string]Kind

// Keys returns the field names in lexical order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks if data conforms to the schema.
// Every field in the schema is required. Fields in data that the schema does
// not mention are ignored. Returns an *AggregateError with all failures found.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for _, key := range schema.Keys() {
		value, exists := data[key]
		if !exists {
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			continue
		}
		if err := schema[key].Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Normalize validates data against the schema and returns a copy where every
// schema field is coerced to its kind. Extra fields are copied unchanged.
func Normalize(schema Schema, data map[string]any) (map[string]any, error) {
	if err := Validate(schema, data); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		kind, ok := schema[k]
		if !ok {
			out[k] = v
			continue
		}
		// Validate already proved coercion succeeds.
		out[k], _ = Coerce(kind, v)
	}
	return out, nil
}
