package validator_test

import (
	"testing"

	"github.com/aretw0/tendril/internal/validator"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/dsl"
	"github.com/aretw0/tendril/pkg/graph"
	"github.com/aretw0/tendril/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type specBuilder interface {
	Build() (domain.GraphSpec, error)
}

func build(t *testing.T, b specBuilder) *graph.Definition {
	t.Helper()
	spec, err := b.Build()
	require.NoError(t, err)
	def, err := graph.Build(spec, nodes.NewRegistry())
	require.NoError(t, err)
	return def
}

func TestLint(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		def := build(t, dsl.New("sum").
			Node("two", "const").Param("value", 2).
			Node("three", "const").Param("value", 3).
			Node("add", "math.add").
			Node("print", "print").
			Connect("two.out", "add.a").
			Connect("three.out", "add.b").
			Connect("add.sum", "print.value").
			Entry("start", "two"))

		assert.Empty(t, validator.Lint(def), "three is pulled by add")
	})

	t.Run("unreachable", func(t *testing.T) {
		def := build(t, dsl.New("island").
			Node("tick", "counter").
			Node("print", "print").
			Node("lonely", "toggle").
			Node("shout", "print").
			Connect("tick.count", "print.value").
			Connect("lonely.state", "shout.value").
			Entry("go", "tick"))

		warnings := validator.Lint(def)
		require.Len(t, warnings, 2)
		assert.Equal(t, "lonely: unreachable from every entry point", warnings[0].String())
		assert.Equal(t, "shout", warnings[1].Node)
	})

	t.Run("no entries", func(t *testing.T) {
		def := build(t, dsl.New("inert").Node("c", "const").Param("value", 1))
		assert.Equal(t, []validator.Warning{{Message: "graph has no entry points"}}, validator.Lint(def))
	})
}
