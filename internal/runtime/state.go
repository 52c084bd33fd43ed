package runtime

import (
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/graph"
)

type slot struct {
	set   bool
	value any
}

// Slots holds the state of the stateful instances of one installed graph.
// It outlives execution contexts and persists across events.
type Slots struct {
	def   *graph.Definition
	slots []slot
}

// NewSlots allocates empty state storage for def.
func NewSlots(def *graph.Definition) *Slots {
	return &Slots{def: def, slots: make([]slot, def.Len())}
}

// Get returns the state of node i. ok is false until the node first runs.
func (s *Slots) Get(i int) (any, bool) {
	return s.slots[i].value, s.slots[i].set
}

// Set replaces the state of node i.
func (s *Slots) Set(i int, value any) {
	s.slots[i] = slot{set: true, value: value}
}

// Reset forgets the state of every instance.
func (s *Slots) Reset() {
	clear(s.slots)
}

// CarryFrom copies state from prev for every instance that keeps its id and
// type across a graph replacement. It returns the number of carried slots.
func (s *Slots) CarryFrom(prev *Slots) int {
	if prev == nil {
		return 0
	}
	carried := 0
	for _, i := range prev.def.Stateful() {
		if !prev.slots[i].set {
			continue
		}
		old := prev.def.Node(i)
		n, ok := s.def.Lookup(old.ID)
		if !ok || n.Type != old.Type {
			continue
		}
		s.slots[n.Index] = prev.slots[i]
		carried++
	}
	return carried
}

// Snapshot captures the state of every stateful instance that has run.
func (s *Slots) Snapshot() *domain.StateSnapshot {
	snap := domain.NewStateSnapshot(s.def.Name())
	snap.SavedAt = time.Now()
	for _, i := range s.def.Stateful() {
		if !s.slots[i].set {
			continue
		}
		n := s.def.Node(i)
		snap.Nodes[n.ID] = domain.NodeState{Type: n.Type, State: s.slots[i].value}
	}
	return snap
}

// Restore loads state from a snapshot. Entries whose instance no longer
// exists, or changed type, are skipped. It returns the number restored.
func (s *Slots) Restore(snap *domain.StateSnapshot) int {
	if snap == nil {
		return 0
	}
	restored := 0
	for id, ns := range snap.Nodes {
		n, ok := s.def.Lookup(id)
		if !ok || n.Type != ns.Type || n.Category() != domain.CategoryStateful {
			continue
		}
		s.slots[n.Index] = slot{set: true, value: ns.State}
		restored++
	}
	return restored
}
