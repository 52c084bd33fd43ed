package nodes

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

// Built-in type ids.
const (
	TypeConst      = "const"
	TypeEventValue = "event.value"
	TypeAdd        = "math.add"
	TypeSub        = "math.sub"
	TypeMul        = "math.mul"
	TypeDiv        = "math.div"
	TypeCompare    = "compare"
	TypeAnd        = "logic.and"
	TypeOr         = "logic.or"
	TypeNot        = "logic.not"
	TypeSelect     = "select"
	TypeConcat     = "text.concat"
	TypeFormat     = "text.format"
	TypePrint      = "print"
	TypeEmit       = "emit"
	TypeHostGet    = "host.get"
	TypeHostSet    = "host.set"
	TypeEnqueue    = "enqueue"
	TypeVarGet     = "var.get"
	TypeVarSet     = "var.set"
	TypeCounter    = "counter"
	TypeToggle     = "toggle"
	TypeLatch      = "latch"
)

// PrintTopic is the topic print nodes emit on by default.
const PrintTopic = "print"

// Descriptors returns the descriptors of every built-in node type.
func Descriptors() []registry.NodeDescriptor {
	var all []registry.NodeDescriptor
	all = append(all, pureDescriptors()...)
	all = append(all, textDescriptors()...)
	all = append(all, effectDescriptors()...)
	all = append(all, statefulDescriptors()...)
	return all
}

// Register adds every built-in node type to r.
func Register(r *registry.Registry) error {
	for _, d := range Descriptors() {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the standard library.
func NewRegistry() *registry.Registry {
	r := registry.New()
	r.MustRegister(Descriptors()...)
	return r
}

// Format renders a slot value as text. Whole numbers print without a
// fractional part, so 5.0 renders as "5".
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case schema.EntityRef:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}
	if n, err := schema.Coerce(schema.Number, v); err == nil {
		return strconv.FormatFloat(n.(float64), 'f', -1, 64)
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}
