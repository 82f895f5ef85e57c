package transform

import "github.com/matzehuels/mvnfetch/pkg/dag"

// BreakCycles removes every back edge found by a depth-first walk that
// starts from the sources in insertion order, and returns the removed edges
// in discovery order. The graph is acyclic afterwards.
func BreakCycles(g *dag.DAG) []dag.Edge {
	const (
		white = iota
		gray
		black
	)

	meta := make(map[[2]string]dag.Metadata)
	for _, e := range g.Edges() {
		meta[[2]string{e.From, e.To}] = e.Meta
	}

	color := make(map[string]int)
	var backEdges []dag.Edge

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, dag.Edge{From: node, To: child, Meta: meta[[2]string{node, child}]})
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e.From, e.To)
	}
	return backEdges
}
