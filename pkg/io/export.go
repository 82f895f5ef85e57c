package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/mvnfetch/pkg/dag"
)

type graph struct {
	Meta  dag.Metadata `json:"meta,omitempty"`
	Nodes []node       `json:"nodes"`
	Edges []edge       `json:"edges"`
}

type node struct {
	ID   string       `json:"id"`
	Row  *int         `json:"row,omitempty"`
	Meta dag.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Meta dag.Metadata `json:"meta,omitempty"`
}

func fromDAG(g *dag.DAG) graph {
	nodes := g.Nodes()
	edges := g.Edges()
	out := graph{
		Meta:  g.Meta(),
		Nodes: make([]node, len(nodes)),
		Edges: make([]edge, len(edges)),
	}
	for i, n := range nodes {
		nd := node{ID: n.ID, Meta: n.Meta}
		if n.Row != 0 {
			row := n.Row
			nd.Row = &row
		}
		out.Nodes[i] = nd
	}
	for i, e := range edges {
		out.Edges[i] = edge{From: e.From, To: e.To, Meta: e.Meta}
	}
	return out
}

// WriteJSON encodes g as indented JSON. The output can be read back with
// [ReadJSON].
func WriteJSON(g *dag.DAG, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fromDAG(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g to the file at path, replacing any existing file.
func ExportJSON(g *dag.DAG, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
