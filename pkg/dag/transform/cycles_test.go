package transform

import (
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/dag"
)

// build creates a graph whose nodes appear in first-mention order.
func build(t *testing.T, edges [][2]string) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, e := range edges {
		for _, id := range e {
			if _, ok := g.Node(id); !ok {
				if err := g.AddNode(dag.Node{ID: id}); err != nil {
					t.Fatal(err)
				}
			}
		}
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestBreakCycles(t *testing.T) {
	tests := []struct {
		name        string
		edges       [][2]string
		wantRemoved [][2]string
	}{
		{
			name:  "chain",
			edges: [][2]string{{"g:app", "g:lib"}, {"g:lib", "g:util"}},
		},
		{
			name:  "diamond",
			edges: [][2]string{{"g:app", "g:a"}, {"g:app", "g:b"}, {"g:a", "g:util"}, {"g:b", "g:util"}},
		},
		{
			name:        "mutual",
			edges:       [][2]string{{"g:a", "g:b"}, {"g:b", "g:a"}},
			wantRemoved: [][2]string{{"g:b", "g:a"}},
		},
		{
			name:        "triangle",
			edges:       [][2]string{{"g:a", "g:b"}, {"g:b", "g:c"}, {"g:c", "g:a"}},
			wantRemoved: [][2]string{{"g:c", "g:a"}},
		},
		{
			name:        "below root",
			edges:       [][2]string{{"g:app", "g:b"}, {"g:b", "g:c"}, {"g:c", "g:d"}, {"g:d", "g:b"}},
			wantRemoved: [][2]string{{"g:d", "g:b"}},
		},
		{
			name:        "two cycles",
			edges:       [][2]string{{"g:a", "g:b"}, {"g:b", "g:a"}, {"g:c", "g:d"}, {"g:d", "g:c"}},
			wantRemoved: [][2]string{{"g:b", "g:a"}, {"g:d", "g:c"}},
		},
		{
			name:        "self reference",
			edges:       [][2]string{{"g:a", "g:a"}},
			wantRemoved: [][2]string{{"g:a", "g:a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.edges)
			removed := BreakCycles(g)

			if len(removed) != len(tt.wantRemoved) {
				t.Fatalf("removed %v, want %v", removed, tt.wantRemoved)
			}
			for i, e := range removed {
				if e.From != tt.wantRemoved[i][0] || e.To != tt.wantRemoved[i][1] {
					t.Errorf("removed[%d] = %s→%s, want %s→%s", i, e.From, e.To, tt.wantRemoved[i][0], tt.wantRemoved[i][1])
				}
			}
			if got, want := g.EdgeCount(), len(tt.edges)-len(tt.wantRemoved); got != want {
				t.Errorf("EdgeCount() = %d, want %d", got, want)
			}
			if again := BreakCycles(g); len(again) != 0 {
				t.Errorf("second pass removed %v", again)
			}
		})
	}
}

func TestBreakCyclesEmpty(t *testing.T) {
	if removed := BreakCycles(dag.New(nil)); len(removed) != 0 {
		t.Errorf("removed %v from an empty graph", removed)
	}
}

func TestBreakCyclesKeepsEdgeMeta(t *testing.T) {
	g := build(t, [][2]string{{"g:app", "g:a"}, {"g:a", "g:b"}})
	if err := g.AddEdge(dag.Edge{From: "g:b", To: "g:a", Meta: dag.Metadata{"version": "1.0", "scope": "runtime"}}); err != nil {
		t.Fatal(err)
	}

	removed := BreakCycles(g)

	if len(removed) != 1 || removed[0].Meta["version"] != "1.0" || removed[0].Meta["scope"] != "runtime" {
		t.Fatalf("removed = %+v", removed)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
