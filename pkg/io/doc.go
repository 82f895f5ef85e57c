// Package io provides JSON import and export for resolution graphs and
// reports.
//
// # Graph Format
//
// A graph has two top-level arrays. Node IDs are versionless Maven keys;
// the resolved version and scope live in meta:
//
//	{
//	  "meta": {"policy": "nearest"},
//	  "nodes": [
//	    {"id": "com.example:app", "meta": {"version": "1.0", "scope": "compile"}},
//	    {"id": "com.example:lib", "row": 1, "meta": {"version": "2.0", "scope": "compile"}}
//	  ],
//	  "edges": [
//	    {"from": "com.example:app", "to": "com.example:lib", "meta": {"version": "2.0", "scope": "compile"}}
//	  ]
//	}
//
// Use [WriteJSON] or [ExportJSON] to write a graph and [ReadJSON] or
// [ImportJSON] to read one back, for example to render it later with
// [render.ToDOT].
//
// # Reports
//
// [WriteReport] encodes a whole resolution: the ordered artifacts, the
// diagnostics, the graph and, when present, the materialized files. It is
// the format of `mvnfetch resolve --format json` and the HTTP service.
//
// [render.ToDOT]: github.com/matzehuels/mvnfetch/pkg/render.ToDOT
package io
