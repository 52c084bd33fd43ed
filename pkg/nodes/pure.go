package nodes

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/schema"
)

var errDivisionByZero = errors.New("division by zero")

func pureDescriptors() []registry.NodeDescriptor {
	return []registry.NodeDescriptor{
		{
			Type:        TypeConst,
			Description: "Outputs the static \"value\" parameter.",
			Outputs:     []domain.SlotSpec{domain.Slot("out", schema.Any)},
			Params:      schema.Schema{"value": schema.Any},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				return registry.Outputs{"out": c.Params["value"]}, nil
			}),
		},
		{
			Type:        TypeEventValue,
			Description: "Passes its input through; fed by the event payload when used as an entry.",
			Inputs:      []domain.SlotSpec{domain.OptionalSlot("value", schema.Any)},
			Outputs:     []domain.SlotSpec{domain.Slot("value", schema.Any)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				v, ok := c.Value("value")
				if !ok {
					return registry.Outputs{}, nil
				}
				return registry.Outputs{"value": v}, nil
			}),
		},
		arithmetic(TypeAdd, "sum", func(a, b float64) (float64, error) { return a + b, nil }),
		arithmetic(TypeSub, "difference", func(a, b float64) (float64, error) { return a - b, nil }),
		arithmetic(TypeMul, "product", func(a, b float64) (float64, error) { return a * b, nil }),
		arithmetic(TypeDiv, "quotient", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, errDivisionByZero
			}
			return a / b, nil
		}),
		{
			Type:        TypeCompare,
			Description: "Compares a and b with op (eq, ne, lt, le, gt, ge).",
			Inputs: []domain.SlotSpec{
				domain.Slot("a", schema.Any),
				domain.Slot("b", schema.Any),
				domain.SlotWithDefault("op", schema.Text, "eq"),
			},
			Outputs: []domain.SlotSpec{domain.Slot("result", schema.Bool)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				ok, err := compare(c.Text("op"), c.Inputs["a"], c.Inputs["b"])
				if err != nil {
					return nil, err
				}
				return registry.Outputs{"result": ok}, nil
			}),
		},
		logic(TypeAnd, func(a, b bool) bool { return a && b }),
		logic(TypeOr, func(a, b bool) bool { return a || b }),
		{
			Type:    TypeNot,
			Inputs:  []domain.SlotSpec{domain.Slot("in", schema.Bool)},
			Outputs: []domain.SlotSpec{domain.Slot("out", schema.Bool)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				return registry.Outputs{"out": !c.Bool("in")}, nil
			}),
		},
		{
			Type:        TypeSelect,
			Description: "Outputs \"then\" when cond is true, \"else\" otherwise.",
			Inputs: []domain.SlotSpec{
				domain.Slot("cond", schema.Bool),
				domain.OptionalSlot("then", schema.Any),
				domain.OptionalSlot("else", schema.Any),
			},
			Outputs: []domain.SlotSpec{domain.Slot("out", schema.Any)},
			Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
				branch := "else"
				if c.Bool("cond") {
					branch = "then"
				}
				v, ok := c.Value(branch)
				if !ok {
					return registry.Outputs{}, nil
				}
				return registry.Outputs{"out": v}, nil
			}),
		},
	}
}

func arithmetic(typeID, output string, op func(a, b float64) (float64, error)) registry.NodeDescriptor {
	return registry.NodeDescriptor{
		Type:    typeID,
		Inputs:  []domain.SlotSpec{domain.Slot("a", schema.Number), domain.Slot("b", schema.Number)},
		Outputs: []domain.SlotSpec{domain.Slot(output, schema.Number)},
		Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
			v, err := op(c.Number("a"), c.Number("b"))
			if err != nil {
				return nil, err
			}
			return registry.Outputs{output: v}, nil
		}),
	}
}

func logic(typeID string, op func(a, b bool) bool) registry.NodeDescriptor {
	return registry.NodeDescriptor{
		Type:    typeID,
		Inputs:  []domain.SlotSpec{domain.Slot("a", schema.Bool), domain.Slot("b", schema.Bool)},
		Outputs: []domain.SlotSpec{domain.Slot("out", schema.Bool)},
		Behavior: registry.Pure(func(_ context.Context, c *registry.Call) (registry.Outputs, error) {
			return registry.Outputs{"out": op(c.Bool("a"), c.Bool("b"))}, nil
		}),
	}
}

func compare(op string, a, b any) (bool, error) {
	switch op {
	case "eq":
		return reflect.DeepEqual(a, b), nil
	case "ne":
		return !reflect.DeepEqual(a, b), nil
	case "lt", "le", "gt", "ge":
	default:
		return false, fmt.Errorf("unknown comparison %q", op)
	}

	var c int
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return false, fmt.Errorf("cannot order number against %T", b)
		}
		c = cmpOrdered(x, y)
	case string:
		y, ok := b.(string)
		if !ok {
			return false, fmt.Errorf("cannot order text against %T", b)
		}
		c = cmpOrdered(x, y)
	default:
		return false, fmt.Errorf("cannot order values of type %T", a)
	}

	switch op {
	case "lt":
		return c < 0, nil
	case "le":
		return c <= 0, nil
	case "gt":
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func cmpOrdered[T float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
