package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/graph"
)

// Overlay marks nodes to highlight on the chart.
type Overlay struct {
	Highlight []string
	Failed    string
}

// GenerateMermaid produces a Mermaid flowchart for a compiled graph.
// Shapes follow the node category:
//   - pure: [rectangle]
//   - effectful: [[subroutine]]
//   - stateful: [(cylinder)]
//   - entry points: ((circle)) pointing at their node
func GenerateMermaid(def *graph.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for i := 0; i < def.Len(); i++ {
		node := def.Node(i)
		opener, closer := shape(node.Category())
		fmt.Fprintf(&sb, "    %s%s\"%s<br/><i>%s</i>\"%s\n", sanitizeMermaidID(node.ID), opener, escape(node.ID), escape(node.Type), closer)
	}

	for _, name := range def.EntryNames() {
		idx, _ := def.Entry(name)
		entryID := "entry_" + sanitizeMermaidID(name)
		fmt.Fprintf(&sb, "    %s((\"%s\"))\n", entryID, escape(name))
		fmt.Fprintf(&sb, "    %s -.-> %s\n", entryID, sanitizeMermaidID(def.Node(idx).ID))
	}

	for i := 0; i < def.Len(); i++ {
		node := def.Node(i)
		outs := make([]string, 0, len(node.Targets))
		for slot := range node.Targets {
			outs = append(outs, slot)
		}
		sort.Strings(outs)
		for _, slot := range outs {
			for _, to := range node.Targets[slot] {
				target := def.Node(to.Node)
				fmt.Fprintf(&sb, "    %s -- \"%s → %s\" --> %s\n",
					sanitizeMermaidID(node.ID), escape(slot), escape(to.Slot), sanitizeMermaidID(target.ID))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef highlight fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Highlight {
			if _, ok := def.Lookup(id); !ok || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s highlight;\n", sanitizeMermaidID(id))
		}
		if _, ok := def.Lookup(overlay.Failed); ok {
			fmt.Fprintf(&sb, "    class %s failed;\n", sanitizeMermaidID(overlay.Failed))
		}
	}

	return sb.String()
}

func shape(c domain.Category) (string, string) {
	switch c {
	case domain.CategoryEffectful:
		return "[[", "]]"
	case domain.CategoryStateful:
		return "[(", ")]"
	default:
		return "[", "]"
	}
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
