package graph

import (
	"slices"

	"github.com/aretw0/tendril/pkg/domain"
)

type color uint8

const (
	white color = iota
	grey
	black
)

// checkCycles walks the upstream edges of every node an entry point can
// evaluate: the entry itself and everything downstream of it. Cycles that
// no entry point can reach are tolerated.
func (b *builder) checkCycles() error {
	colors := make([]color, len(b.def.nodes))
	var stack []int

	var visit func(i int) error
	visit = func(i int) error {
		colors[i] = grey
		stack = append(stack, i)
		for _, slot := range inputOrder(&b.def.nodes[i]) {
			src := b.def.nodes[i].Sources[slot].Node
			switch colors[src] {
			case grey:
				return b.cycleError(stack, src)
			case white:
				if err := visit(src); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		colors[i] = black
		return nil
	}

	for _, name := range b.def.EntryNames() {
		for _, root := range b.downstream(b.def.entries[name]) {
			if colors[root] != white {
				continue
			}
			if err := visit(root); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleError reports the cycle closed by reaching start again. The stack
// follows upstream edges, so it is reversed into data-flow order.
func (b *builder) cycleError(stack []int, start int) error {
	at := slices.Index(stack, start)
	loop := append([]int(nil), stack[at:]...)
	slices.Reverse(loop)

	path := make([]string, 0, len(loop)+1)
	path = append(path, b.def.nodes[start].ID)
	for _, i := range loop[:len(loop)-1] {
		path = append(path, b.def.nodes[i].ID)
	}
	path = append(path, b.def.nodes[start].ID)

	return &domain.GraphError{
		Graph: b.def.name,
		Kind:  domain.ErrCyclicGraph,
		Node:  b.def.nodes[start].ID,
		Path:  path,
	}
}

// downstream returns root and every node reachable from it along
// connections, in discovery order.
func (b *builder) downstream(root int) []int {
	seen := map[int]bool{root: true}
	order := []int{root}
	for q := 0; q < len(order); q++ {
		n := &b.def.nodes[order[q]]
		for _, slot := range outputOrder(n) {
			for _, t := range n.Targets[slot] {
				if !seen[t.Node] {
					seen[t.Node] = true
					order = append(order, t.Node)
				}
			}
		}
	}
	return order
}

// plan records, per entry point, the entry followed by its downstream
// closure in topological order. Build has already rejected reachable cycles.
func (b *builder) plan() {
	for name, entry := range b.def.entries {
		visited := make(map[int]bool)
		var post []int
		var walk func(i int)
		walk = func(i int) {
			visited[i] = true
			n := &b.def.nodes[i]
			for _, slot := range outputOrder(n) {
				for _, t := range n.Targets[slot] {
					if !visited[t.Node] {
						walk(t.Node)
					}
				}
			}
			post = append(post, i)
		}
		walk(entry)
		slices.Reverse(post)
		b.def.plans[name] = post
	}
}

func inputOrder(n *Node) []string {
	var slots []string
	for _, s := range n.Descriptor.Inputs {
		if _, ok := n.Sources[s.Name]; ok {
			slots = append(slots, s.Name)
		}
	}
	return slots
}

func outputOrder(n *Node) []string {
	var slots []string
	for _, s := range n.Descriptor.Outputs {
		if _, ok := n.Targets[s.Name]; ok {
			slots = append(slots, s.Name)
		}
	}
	return slots
}
