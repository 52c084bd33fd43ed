package runtime

import (
	"github.com/aretw0/tendril/pkg/graph"
)

// ExecutionContext is the scratch state of a single run of an entry point.
// It is created per event and discarded afterwards; it is never shared
// between events, so no memoized value can leak into the next one.
type ExecutionContext struct {
	def     *graph.Definition
	slots   *Slots
	entry   int
	payload map[string]any

	cache      []map[string]any
	done       []bool
	inProgress []bool
	invoked    int
}

// NewExecutionContext prepares a run of def starting at the entry index.
func NewExecutionContext(def *graph.Definition, slots *Slots, entry int, payload map[string]any) *ExecutionContext {
	n := def.Len()
	return &ExecutionContext{
		def:        def,
		slots:      slots,
		entry:      entry,
		payload:    payload,
		cache:      make([]map[string]any, n),
		done:       make([]bool, n),
		inProgress: make([]bool, n),
	}
}

// Definition returns the graph being run.
func (c *ExecutionContext) Definition() *graph.Definition { return c.def }

// Cached returns the memoized outputs of node i.
func (c *ExecutionContext) Cached(i int) (map[string]any, bool) {
	return c.cache[i], c.done[i]
}

// Invocations returns how many behaviors ran in this context.
func (c *ExecutionContext) Invocations() int { return c.invoked }

func (c *ExecutionContext) store(i int, outputs map[string]any) {
	c.cache[i] = outputs
	c.done[i] = true
}
