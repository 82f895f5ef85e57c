package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/mvnfetch/pkg/dag"
)

// ReadJSON decodes a graph written by [WriteJSON], or the graph embedded in
// a [Report].
//
// Errors name the node or edge that could not be added. Cycles are
// accepted; call [dag.DAG.Validate] when the caller needs an acyclic graph.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var report struct {
		Graph *graph `json:"graph"`
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	var data graph
	if report.Graph != nil {
		data = *report.Graph
	} else if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := dag.New(data.Meta)
	for _, n := range data.Nodes {
		nd := dag.Node{ID: n.ID, Meta: n.Meta}
		if n.Row != nil {
			nd.Row = *n.Row
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To, Meta: e.Meta}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// ImportJSON reads the graph stored at path.
func ImportJSON(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
