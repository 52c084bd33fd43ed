// Package schema defines the value kinds understood by the flow VM and the
// coercion rules between them.
//
// The kind set is closed: Number, Bool, Text, Entity and the wildcard Any.
// Two slots can be connected when their kinds are identical or either side
// is Any. At run time every value crossing a slot is passed through Coerce,
// which normalizes numbers to float64 and entity handles to EntityRef.
//
// Schemas map field names to kinds and are used to validate static node
// parameters and event payloads:
//
//	params := schema.Schema{
//	    "value":   schema.Number,
//	    "label":   schema.Text,
//	}
//
//	if err := schema.Validate(params, data); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        // ...
//	    }
//	}
//
// This package has no dependencies beyond the Go standard library.
package schema
