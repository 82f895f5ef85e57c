package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/dag"
)

func testGraph() *dag.DAG {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "com.example:app", Meta: dag.Metadata{"version": "1.0", "scope": "compile"}})
	g.AddNode(dag.Node{ID: "com.example:lib", Row: 1, Meta: dag.Metadata{"version": "2.0", "scope": "compile"}})
	g.AddNode(dag.Node{ID: "com.example:log", Row: 1, Meta: dag.Metadata{"version": "1.1", "scope": "runtime"}})
	g.AddNode(dag.Node{ID: "com.example:util", Row: 2, Meta: dag.Metadata{"version": "1.5", "scope": "compile", "optional": true}})
	g.AddEdge(dag.Edge{From: "com.example:app", To: "com.example:lib", Meta: dag.Metadata{"scope": "compile"}})
	g.AddEdge(dag.Edge{From: "com.example:app", To: "com.example:log", Meta: dag.Metadata{"scope": "runtime"}})
	g.AddEdge(dag.Edge{From: "com.example:lib", To: "com.example:util"})
	g.AddEdge(dag.Edge{From: "com.example:log", To: "com.example:util"})
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testGraph(), Options{})

	for _, want := range []string{
		"digraph G",
		`"com.example:app" [label="com.example:app\n1.0", penwidth=2`,
		`"com.example:app" -> "com.example:lib";`,
		`"com.example:app" -> "com.example:log" [style=dashed, label="runtime"];`,
		"fillcolor=lightgrey",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
}

func TestToDOTDeterministic(t *testing.T) {
	if ToDOT(testGraph(), Options{}) != ToDOT(testGraph(), Options{}) {
		t.Error("ToDOT() output differs between equal graphs")
	}
}

func TestFmtLabel(t *testing.T) {
	n := dag.Node{ID: "com.example:lib", Row: 2, Meta: dag.Metadata{"version": "2.0", "scope": "runtime"}}

	if got := fmtLabel(n, false); got != "com.example:lib\n2.0" {
		t.Errorf("fmtLabel(simple) = %q", got)
	}
	got := fmtLabel(n, true)
	if !strings.Contains(got, "depth: 2") || !strings.Contains(got, "scope: runtime") {
		t.Errorf("fmtLabel(detailed) = %q", got)
	}
	if strings.Contains(got, "version: 2.0") {
		t.Errorf("fmtLabel(detailed) repeats version: %q", got)
	}
}

func TestWriteTree(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTree(&buf, testGraph()); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"com.example:app:1.0",
		"├── com.example:lib:2.0",
		"│   └── com.example:util:1.5 (optional)",
		"└── com.example:log:1.1 [runtime]",
		"    └── com.example:util:1.5 (optional) (*)",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("WriteTree() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 62.00 116.00" width="62" height="116"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Errorf("normalizeViewBox() changed svg without viewBox: %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testGraph(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("com.example:util")) {
		t.Error("RenderSVG() output missing svg root or node label")
	}
}
