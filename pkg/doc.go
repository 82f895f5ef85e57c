// Package pkg provides the libraries behind mvnfetch, a transitive Maven
// dependency resolver and downloader.
//
// # Overview
//
// The pkg directory is organized by stage:
//
//  1. [coord], [version], [pom] - Maven coordinates, version ordering and
//     ranges, POM parsing with parent and property resolution
//  2. [repository] - Remote and local repository access with checksum
//     verification, retries and metadata caching
//  3. [resolve] - Transitive resolution with conflict mediation
//  4. [download] and [store] - Parallel materialization into a Maven-layout
//     artifact store
//  5. [pipeline] - Orchestration (parse → resolve → fetch) used by the CLI,
//     the HTTP service and library callers
//
// Supporting packages: [cache] (metadata and resolution caching on disk or
// Redis), [dag] (the resolution graph), [io] (JSON export), [render]
// (trees, DOT and SVG), [history] (run history in memory or MongoDB),
// [config], [errors], [httputil] and [observability].
//
// # Architecture
//
//	group:artifact:version
//	         ↓
//	    [repository] (POMs, metadata, artifacts)
//	         ↓
//	    [resolve] (breadth-first walk, nearest declaration wins)
//	         ↓
//	    [download] (bounded worker pool, shared in-flight fetches)
//	         ↓
//	    [store] (verified files on local disk)
//
// # Quick Start
//
//	files, err := pipeline.Resolve(ctx,
//	    []string{"org.slf4j:slf4j-simple:2.0.9"},
//	    nil, // Maven Central
//	    nil, // no exclusions
//	)
//	for _, f := range files {
//	    fmt.Println(f.Coordinate, f.Path)
//	}
package pkg
