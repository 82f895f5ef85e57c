package resolve

import "strings"

// DiagnosticKind classifies a non-fatal resolution finding.
type DiagnosticKind string

const (
	CycleDetected   DiagnosticKind = "cycle-detected"
	MissingOptional DiagnosticKind = "missing-optional"
	Relocated       DiagnosticKind = "relocated"
	VersionConflict DiagnosticKind = "version-conflict"
)

// Diagnostic is a non-fatal finding reported alongside the resolved order.
type Diagnostic struct {
	Kind       DiagnosticKind `json:"kind"`
	Coordinate string         `json:"coordinate"`
	Path       []string       `json:"path,omitempty"` // Root first, Coordinate last
	Message    string         `json:"message"`
}

// String formats the diagnostic for logs and CLI output.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(string(d.Kind))
	b.WriteString(": ")
	b.WriteString(d.Message)
	if len(d.Path) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(d.Path, " -> "))
		b.WriteString(")")
	}
	return b.String()
}
