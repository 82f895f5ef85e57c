package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/mvnfetch/pkg/download"
	"github.com/matzehuels/mvnfetch/pkg/resolve"
)

// Report is the JSON form of a resolution.
type Report struct {
	Roots       []string                    `json:"roots"`
	Order       []string                    `json:"order"`
	Artifacts   []resolve.Artifact          `json:"artifacts"`
	Diagnostics []resolve.Diagnostic        `json:"diagnostics"`
	Files       []download.ResolvedArtifact `json:"files,omitempty"`
	Graph       *graph                      `json:"graph,omitempty"`
}

// NewReport builds a report from a resolution. files may be nil when
// nothing was materialized.
func NewReport(roots []string, res *resolve.Result, files []download.ResolvedArtifact) Report {
	rep := Report{
		Roots:       roots,
		Order:       make([]string, len(res.Order)),
		Artifacts:   res.Artifacts,
		Diagnostics: res.Diagnostics,
		Files:       files,
	}
	for i, c := range res.Order {
		rep.Order[i] = c.String()
	}
	if rep.Artifacts == nil {
		rep.Artifacts = []resolve.Artifact{}
	}
	if rep.Diagnostics == nil {
		rep.Diagnostics = []resolve.Diagnostic{}
	}
	if res.Graph != nil {
		g := fromDAG(res.Graph)
		rep.Graph = &g
	}
	return rep
}

// WriteReport encodes the report for res as indented JSON.
func WriteReport(w io.Writer, roots []string, res *resolve.Result, files []download.ResolvedArtifact) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewReport(roots, res, files)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
