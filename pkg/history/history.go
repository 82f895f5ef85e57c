// Package history records resolution runs served by the HTTP service.
//
// A [Run] captures the request, the resolved coordinates, the diagnostics
// and any error. [MemoryStore] keeps recent runs in process; [MongoStore]
// persists them in MongoDB so they survive restarts and can be shared by
// several service instances.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mvnfetch/pkg/resolve"
)

// DefaultListLimit bounds List when the caller passes no limit.
const DefaultListLimit = 50

// Run is one recorded resolution.
type Run struct {
	ID           string               `json:"id" bson:"_id"`
	Roots        []string             `json:"roots" bson:"roots"`
	Repositories []string             `json:"repositories" bson:"repositories"`
	Excludes     []string             `json:"excludes,omitempty" bson:"excludes,omitempty"`
	Policy       string               `json:"policy" bson:"policy"`
	Artifacts    []string             `json:"artifacts" bson:"artifacts"`
	Diagnostics  []resolve.Diagnostic `json:"diagnostics" bson:"diagnostics"`
	Error        string               `json:"error,omitempty" bson:"error,omitempty"`
	ErrorCode    string               `json:"error_code,omitempty" bson:"error_code,omitempty"`
	StartedAt    time.Time            `json:"started_at" bson:"started_at"`
	Duration     time.Duration        `json:"duration" bson:"duration"`
}

// NewRun starts a run with a fresh ID.
func NewRun(roots, repositories, excludes []string, policy string) *Run {
	return &Run{
		ID:           uuid.NewString(),
		Roots:        roots,
		Repositories: repositories,
		Excludes:     excludes,
		Policy:       policy,
		StartedAt:    time.Now().UTC(),
	}
}

// Succeeded reports whether the run finished without error.
func (r *Run) Succeeded() bool { return r.Error == "" }

// Store persists runs. Implementations are safe for concurrent use.
type Store interface {
	// Save inserts or replaces a run.
	Save(ctx context.Context, run *Run) error

	// Get returns the run with the given ID or a RUN_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns up to limit runs, newest first. A limit <= 0 selects
	// DefaultListLimit.
	List(ctx context.Context, limit int) ([]*Run, error)

	Close(ctx context.Context) error
}

// ValidID reports whether id has the form produced by [NewRun].
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
