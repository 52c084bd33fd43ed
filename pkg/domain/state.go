package domain

import "time"

// NodeState is the persisted state of one stateful instance.
type NodeState struct {
	Type  string `json:"type"`
	State any    `json:"state"`
}

// StateSnapshot captures every stateful instance of one installed graph.
// Snapshots must be JSON-serializable to be stored outside the process.
type StateSnapshot struct {
	Graph   string               `json:"graph"`
	Nodes   map[string]NodeState `json:"nodes"`
	SavedAt time.Time            `json:"saved_at"`
}

// NewStateSnapshot creates an empty snapshot for the named graph.
func NewStateSnapshot(graph string) *StateSnapshot {
	return &StateSnapshot{
		Graph:   graph,
		Nodes:   make(map[string]NodeState),
		SavedAt: time.Now(),
	}
}
