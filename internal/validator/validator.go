// Package validator lints compiled graphs for problems that do not stop
// them from installing.
package validator

import (
	"fmt"
	"sort"

	"github.com/aretw0/tendril/pkg/graph"
)

// Warning is one lint finding.
type Warning struct {
	Node    string
	Message string
}

func (w Warning) String() string {
	if w.Node == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Node, w.Message)
}

// Lint reports graphs without entry points and instances that no entry
// point can ever evaluate, either by pushing downstream or by pulling an
// input upstream.
func Lint(def *graph.Definition) []Warning {
	entries := def.EntryNames()
	if len(entries) == 0 {
		return []Warning{{Message: "graph has no entry points"}}
	}

	reached := make([]bool, def.Len())
	var queue []int
	for _, name := range entries {
		queue = append(queue, def.Plan(name)...)
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if reached[i] {
			continue
		}
		reached[i] = true
		for _, src := range def.Node(i).Sources {
			if !reached[src.Node] {
				queue = append(queue, src.Node)
			}
		}
	}

	var out []Warning
	for i := 0; i < def.Len(); i++ {
		if !reached[i] {
			out = append(out, Warning{Node: def.Node(i).ID, Message: "unreachable from every entry point"})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Node < out[b].Node })
	return out
}
