// Package coord parses and formats Maven coordinates.
//
// # Overview
//
// A [Coordinate] identifies one artifact in a Maven repository. The string
// form has three or four colon-separated segments:
//
//	group:artifact:version
//	group:artifact:classifier:version
//
// [Parse] accepts exactly these two forms and [Coordinate.String] writes them
// back unchanged, so parse and format round-trip.
//
// # Identity
//
// Two coordinates refer to the same artifact when their [Key] values are
// equal. The key holds group, artifact, classifier and packaging but not the
// version: conflict resolution compares versions separately.
//
// # Repository Layout
//
// [Coordinate.RepositoryPath], [Coordinate.POMPath] and
// [Coordinate.MetadataPath] produce paths in the standard Maven repository
// layout. The same paths are used for remote repositories and for the local
// artifact store.
//
// # Exclusions
//
// [ParseExclusion] reads "group:artifact" patterns where either segment may
// use "*" wildcards:
//
//	ex, _ := coord.ParseExclusion("org.slf4j:*")
//	ex.Matches(c) // true for every org.slf4j artifact
package coord
