package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Coerce normalizes value to the Go representation of kind.
//
// Numbers become float64 (any Go integer or float and json.Number are
// accepted), text stays string, entities become EntityRef and any passes
// the value through, normalizing numbers only. A nil value never coerces
// except for Any.
func Coerce(kind Kind, value any) (any, error) {
	switch kind {
	case Any:
		if KindOf(value) == Number {
			return toNumber(value)
		}
		return value, nil
	case Number:
		return toNumber(value)
	case Bool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", value)
		}
		return b, nil
	case Text:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected text, got %T", value)
		}
		return s, nil
	case Entity:
		return toEntity(value)
	default:
		return nil, fmt.Errorf("unsupported kind: %s", kind)
	}
}

// KindOf infers the kind of a concrete value. Values that do not map to a
// specific kind report Any.
func KindOf(value any) Kind {
	switch value.(type) {
	case bool:
		return Bool
	case string:
		return Text
	case EntityRef:
		return Entity
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return Number
	}
	return Any
}

func toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", v.String())
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", value)
	}
}

// maxExactInteger is the largest float64 holding every smaller integer exactly.
const maxExactInteger = 1 << 53

func toEntity(value any) (EntityRef, error) {
	switch v := value.(type) {
	case EntityRef:
		return v, nil
	case string:
		if v == "" {
			return "", fmt.Errorf("expected entity, got empty string")
		}
		return EntityRef(v), nil
	case nil, bool:
		return "", fmt.Errorf("expected entity, got %T", value)
	}

	f, err := toNumber(value)
	if err != nil {
		return "", fmt.Errorf("expected entity, got %T", value)
	}
	if f < 0 || f != math.Trunc(f) {
		return "", fmt.Errorf("expected entity, got non-integral number %v", f)
	}
	if math.IsInf(f, 0) || f > maxExactInteger {
		return "", fmt.Errorf("expected entity, got out of range number %v", f)
	}
	return EntityRef(strconv.FormatUint(uint64(f), 10)), nil
}
