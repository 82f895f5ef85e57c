package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/dag"
)

// WriteTree prints g as an indented tree rooted at its depth-0 nodes.
func WriteTree(w io.Writer, g *dag.DAG) error {
	seen := make(map[string]bool)
	var walk func(id, prefix string, last bool, top bool) error
	walk = func(id, prefix string, last bool, top bool) error {
		branch, next := "", prefix
		if !top {
			branch, next = prefix+"├── ", prefix+"│   "
			if last {
				branch, next = prefix+"└── ", prefix+"    "
			}
		}

		line := branch + nodeLabel(g, id)
		if seen[id] {
			_, err := fmt.Fprintln(w, line+" (*)")
			return err
		}
		seen[id] = true
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		children := g.Children(id)
		for i, c := range children {
			if err := walk(c, next, i == len(children)-1, false); err != nil {
				return err
			}
		}
		return nil
	}

	for _, n := range g.NodesInRow(0) {
		if err := walk(n.ID, "", true, true); err != nil {
			return err
		}
	}
	return nil
}

func nodeLabel(g *dag.DAG, id string) string {
	n, ok := g.Node(id)
	if !ok {
		return id
	}
	var b strings.Builder
	b.WriteString(n.ID)
	if v, ok := n.Meta["version"].(string); ok && v != "" {
		b.WriteString(":" + v)
	}
	if s, ok := n.Meta["scope"].(string); ok && s != "" && s != "compile" && n.Row > 0 {
		b.WriteString(" [" + s + "]")
	}
	if n.Meta["optional"] == true {
		b.WriteString(" (optional)")
	}
	return b.String()
}
