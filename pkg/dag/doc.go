// Package dag provides the directed graph produced by dependency resolution.
//
// # Overview
//
// Each node is one winning artifact, identified by its versionless key
// ("group:artifact" plus classifier and packaging when present). Each edge
// is a dependency reference between two winners. Row holds the depth at
// which the node won, so exporters can group nodes by level.
//
// Unlike a general graph library, DAG keeps insertion order for nodes and
// edges. Resolution inserts in breadth-first registration order, which makes
// every export and traversal deterministic.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "org.example:app", Row: 0})
//	g.AddNode(dag.Node{ID: "org.example:lib", Row: 1})
//	g.AddEdge(dag.Edge{From: "org.example:app", To: "org.example:lib"})
//
// Use [DAG.Validate] to check that the graph is acyclic, and the [transform]
// subpackage to remove edges that close a cycle.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use.
//
// [transform]: github.com/matzehuels/mvnfetch/pkg/dag/transform
package dag
