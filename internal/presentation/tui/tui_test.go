package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/tendril/internal/presentation/tui"
	"github.com/aretw0/tendril/pkg/dsl"
	"github.com/aretw0/tendril/pkg/graph"
	"github.com/aretw0/tendril/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphReport(t *testing.T) {
	spec, err := dsl.New("hello").
		Node("two", nodes.TypeConst).Param("value", 2).
		Node("print", nodes.TypePrint).
		Connect("two.out", "print.value").
		Entry("start", "two").
		Build()
	require.NoError(t, err)
	def, err := graph.Build(spec, nodes.NewRegistry())
	require.NoError(t, err)

	report := tui.GraphReport(def)
	assert.Contains(t, report, "# hello")
	assert.Contains(t, report, "- `start` → `two` (2 nodes)")
	assert.Contains(t, report, "| `two` | const | pure | - |")
	assert.Contains(t, report, "| `print` | print | effectful | value ← two.out |")

	rendered, err := tui.NewRenderer()(report)
	require.NoError(t, err)
	assert.NotEmpty(t, rendered)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "0.1.0\n")
	assert.Contains(t, buf.String(), "v0.1.0")
}
