package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tendril/pkg/graph"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// GraphReport describes a compiled graph as markdown: its entry points
// and a table of node instances with their wiring.
func GraphReport(def *graph.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", def.Name())
	if desc := def.Spec().Description; desc != "" {
		fmt.Fprintf(&b, "%s\n\n", desc)
	}

	b.WriteString("## Entry points\n\n")
	names := def.EntryNames()
	if len(names) == 0 {
		b.WriteString("_none_\n\n")
	}
	for _, name := range names {
		idx, _ := def.Entry(name)
		fmt.Fprintf(&b, "- `%s` → `%s` (%d nodes)\n", name, def.Node(idx).ID, len(def.Plan(name)))
	}
	if len(names) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("## Nodes\n\n")
	b.WriteString("| Node | Type | Category | Inputs |\n")
	b.WriteString("|------|------|----------|--------|\n")
	for i := 0; i < def.Len(); i++ {
		n := def.Node(i)
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", n.ID, n.Type, n.Category(), inputs(def, n))
	}
	return b.String()
}

func inputs(def *graph.Definition, n *graph.Node) string {
	slots := make([]string, 0, len(n.Sources))
	for slot := range n.Sources {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		src := n.Sources[slot]
		parts = append(parts, fmt.Sprintf("%s ← %s.%s", slot, def.Node(src.Node).ID, src.Slot))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
