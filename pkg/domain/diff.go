package domain

import (
	"reflect"
	"sort"
)

// GraphDiff summarizes the changes between two versions of a graph.
// It is reported when a graph is replaced, typically by a hot reload.
type GraphDiff struct {
	AddedNodes   []string `json:"added_nodes,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty"`
	ChangedNodes []string `json:"changed_nodes,omitempty"`

	AddedConnections   []string `json:"added_connections,omitempty"`
	RemovedConnections []string `json:"removed_connections,omitempty"`

	// EntryPoints lists entry names that were added, removed or retargeted.
	EntryPoints []string `json:"entry_points,omitempty"`
}

// Empty reports whether the diff contains no change.
func (d *GraphDiff) Empty() bool {
	return d == nil || (len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 && len(d.ChangedNodes) == 0 &&
		len(d.AddedConnections) == 0 && len(d.RemovedConnections) == 0 && len(d.EntryPoints) == 0)
}

// Diff calculates the difference between oldSpec and newSpec.
// If oldSpec is nil, everything in newSpec is reported as added.
func Diff(oldSpec, newSpec *GraphSpec) *GraphDiff {
	if newSpec == nil {
		return nil
	}
	if oldSpec == nil {
		oldSpec = &GraphSpec{}
	}

	diff := &GraphDiff{}

	oldNodes := make(map[string]NodeInstance, len(oldSpec.Nodes))
	for _, n := range oldSpec.Nodes {
		oldNodes[n.ID] = n
	}
	newNodes := make(map[string]NodeInstance, len(newSpec.Nodes))
	for _, n := range newSpec.Nodes {
		newNodes[n.ID] = n
		prev, ok := oldNodes[n.ID]
		switch {
		case !ok:
			diff.AddedNodes = append(diff.AddedNodes, n.ID)
		case prev.Type != n.Type || !reflect.DeepEqual(prev.Params, n.Params):
			diff.ChangedNodes = append(diff.ChangedNodes, n.ID)
		}
	}
	for id := range oldNodes {
		if _, ok := newNodes[id]; !ok {
			diff.RemovedNodes = append(diff.RemovedNodes, id)
		}
	}

	oldConns := connectionSet(oldSpec.Connections)
	newConns := connectionSet(newSpec.Connections)
	for c := range newConns {
		if !oldConns[c] {
			diff.AddedConnections = append(diff.AddedConnections, c)
		}
	}
	for c := range oldConns {
		if !newConns[c] {
			diff.RemovedConnections = append(diff.RemovedConnections, c)
		}
	}

	for name, target := range newSpec.EntryPoints {
		if prev, ok := oldSpec.EntryPoints[name]; !ok || prev != target {
			diff.EntryPoints = append(diff.EntryPoints, name)
		}
	}
	for name := range oldSpec.EntryPoints {
		if _, ok := newSpec.EntryPoints[name]; !ok {
			diff.EntryPoints = append(diff.EntryPoints, name)
		}
	}

	for _, s := range [][]string{
		diff.AddedNodes, diff.RemovedNodes, diff.ChangedNodes,
		diff.AddedConnections, diff.RemovedConnections, diff.EntryPoints,
	} {
		sort.Strings(s)
	}
	return diff
}

func connectionSet(conns []Connection) map[string]bool {
	set := make(map[string]bool, len(conns))
	for _, c := range conns {
		set[c.String()] = true
	}
	return set
}
