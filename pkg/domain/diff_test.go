package domain

import (
	"reflect"
	"testing"
)

func TestDiff(t *testing.T) {
	old := &GraphSpec{
		Name: "g",
		Nodes: []NodeInstance{
			{ID: "a", Type: "const", Params: map[string]any{"value": 1}},
			{ID: "b", Type: "print"},
			{ID: "gone", Type: "print"},
		},
		Connections: []Connection{Connect("a", "out", "b", "value")},
		EntryPoints: map[string]string{"start": "b", "old": "gone"},
	}
	next := &GraphSpec{
		Name: "g",
		Nodes: []NodeInstance{
			{ID: "a", Type: "const", Params: map[string]any{"value": 2}},
			{ID: "b", Type: "print"},
			{ID: "c", Type: "print"},
		},
		Connections: []Connection{Connect("a", "out", "c", "value")},
		EntryPoints: map[string]string{"start": "c"},
	}

	tests := []struct {
		name string
		old  *GraphSpec
		new  *GraphSpec
		want *GraphDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  old,
			want: &GraphDiff{
				AddedNodes:       []string{"a", "b", "gone"},
				AddedConnections: []string{"a.out -> b.value"},
				EntryPoints:      []string{"old", "start"},
			},
		},
		{
			name: "No Changes",
			old:  old,
			new:  old,
			want: &GraphDiff{},
		},
		{
			name: "Rewired",
			old:  old,
			new:  next,
			want: &GraphDiff{
				AddedNodes:         []string{"c"},
				RemovedNodes:       []string{"gone"},
				ChangedNodes:       []string{"a"},
				AddedConnections:   []string{"a.out -> c.value"},
				RemovedConnections: []string{"a.out -> b.value"},
				EntryPoints:        []string{"old", "start"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDiff_Empty(t *testing.T) {
	spec := &GraphSpec{Nodes: []NodeInstance{{ID: "a", Type: "x"}}}
	if !Diff(spec, spec).Empty() {
		t.Error("diff of identical specs should be empty")
	}
	if Diff(nil, spec).Empty() {
		t.Error("initial diff should not be empty")
	}
}
