// Package resolve computes the conflict-resolved transitive closure of Maven
// coordinates.
//
// # Algorithm
//
// Resolution is a level-synchronous breadth-first walk. All POMs of one
// depth are fetched concurrently and the fetches are joined before the next
// depth is expanded, so conflict resolution always sees declarations in
// their declared order:
//
//  1. Load the effective POM of every node at the current depth.
//  2. Register the nodes as winners in declaration order.
//  3. Expand each winner's dependencies. A dependency whose group:artifact
//     already has a winner loses; otherwise it is claimed for the next depth.
//
// With the default [NearestWins] policy a shallower declaration always beats
// a deeper one and the first declaration wins ties. [HighestVersion] reruns
// the walk with every artifact pinned to the highest version seen until the
// pins stop changing.
//
// # Filtering
//
// Exclusions (global and per dependency) accumulate down each subtree and
// remove matches before conflict resolution. Test, provided and system
// dependencies of transitive artifacts are dropped, and optional
// dependencies are skipped unless [Options.IncludeOptional] is set.
//
// # Diagnostics
//
// Non-fatal findings are returned as [Diagnostic] values rather than errors:
// a dependency that points back at one of its ancestors is skipped and
// reported as [CycleDetected], a missing optional dependency as
// [MissingOptional], a relocated artifact as [Relocated] and a losing
// declaration with a different version as [VersionConflict].
package resolve
