// Package transform provides in-place transformations of a resolution graph.
//
// # Cycle Breaking
//
// [BreakCycles] detects and removes edges that close a cycle. Maven
// dependency graphs should be acyclic, but published POMs sometimes declare
// circular dependencies between modules of the same project. Resolution
// calls BreakCycles once the graph is built and reports every removed edge
// as a diagnostic.
//
//	removed := transform.BreakCycles(g)
//	for _, e := range removed {
//	    log.Warn("cycle", "from", e.From, "to", e.To)
//	}
package transform
