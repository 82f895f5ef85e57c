// Package render draws resolution graphs.
//
// # Node-Link Diagrams
//
// [ToDOT] turns a graph into Graphviz DOT. Nodes are labeled with their
// key and resolved version; roots are drawn bold and optional artifacts
// dashed. [RenderSVG] lays the DOT out with the embedded Graphviz build from
// github.com/goccy/go-graphviz, so no system Graphviz is needed:
//
//	dot := render.ToDOT(res.Graph, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Trees
//
// [WriteTree] prints the graph as an indented text tree, the way
// `mvn dependency:tree` does. Each artifact is expanded once; later
// references are marked with "(*)".
package render
