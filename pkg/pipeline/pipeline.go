// Package pipeline is the caller-facing API of mvnfetch: parse coordinates,
// resolve the transitive closure, then materialize every artifact into the
// local store.
//
// The CLI, the HTTP service and library callers all go through this
// package, so defaults, caching and error reporting are the same
// everywhere.
//
// # Usage
//
// The one-call form resolves against the given repositories and returns
// the downloaded files in resolution order:
//
//	files, err := pipeline.Resolve(ctx,
//	    []string{"com.google.guava:guava:32.1.3-jre"},
//	    nil, // Maven Central
//	    []string{"com.google.code.findbugs:jsr305"},
//	)
//
// A [Runner] keeps its repository client, store and metadata cache across
// calls:
//
//	runner, err := pipeline.NewRunner(pipeline.Config{StoreDir: dir})
//	res, err := runner.Resolve(ctx, pipeline.Request{
//	    Roots: []string{"org.slf4j:slf4j-simple:2.0.9"},
//	    Fetch: true,
//	})
//
// # Errors
//
// Either every artifact is returned or the error describes every failure:
// a missing artifact is MISSING_DEPENDENCY, failed downloads are collected
// in an [errors.PartialResolutionError], and cancellation is CANCELLED.
//
// [errors.PartialResolutionError]: github.com/matzehuels/mvnfetch/pkg/errors.PartialResolutionError
package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/download"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/httputil"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/resolve"
)

// DefaultResolveTTL is how long a cached resolution is reused. Ranges and
// versionless declarations can resolve differently once new versions are
// published, so results are not kept forever.
const DefaultResolveTTL = time.Hour

// Request describes one resolution.
type Request struct {
	Roots           []string       `json:"roots"`
	Excludes        []string       `json:"excludes,omitempty"`
	Policy          resolve.Policy `json:"policy,omitempty"`
	Scopes          []string       `json:"scopes,omitempty"`
	IncludeOptional bool           `json:"include_optional,omitempty"`

	// Fetch downloads every resolved artifact into the store.
	Fetch bool `json:"fetch,omitempty"`

	// Refresh ignores a cached resolution.
	Refresh bool `json:"-"`
}

// Stats reports stage timings.
type Stats struct {
	ResolveTime time.Duration `json:"resolve_time"`
	FetchTime   time.Duration `json:"fetch_time,omitempty"`
	Artifacts   int           `json:"artifacts"`
}

// Result is the outcome of [Runner.Resolve].
type Result struct {
	Resolution *resolve.Result
	Files      []download.ResolvedArtifact // nil unless Request.Fetch
	Stats      Stats
	CacheHit   bool // Resolution came from the metadata cache
}

// Option configures the one-call [Resolve].
type Option func(*settings)

type settings struct {
	config  Config
	request Request
}

// WithPolicy selects the conflict policy.
func WithPolicy(p resolve.Policy) Option {
	return func(s *settings) { s.request.Policy = p }
}

// WithScopes sets the scopes to keep (default compile and runtime).
func WithScopes(scopes ...string) Option {
	return func(s *settings) { s.request.Scopes = scopes }
}

// WithOptional follows optional dependencies.
func WithOptional(include bool) Option {
	return func(s *settings) { s.request.IncludeOptional = include }
}

// WithStoreDir sets the local artifact store directory.
func WithStoreDir(dir string) Option {
	return func(s *settings) { s.config.StoreDir = dir }
}

// WithCache sets the metadata cache.
func WithCache(c cache.Cache) Option {
	return func(s *settings) { s.config.Cache = c }
}

// WithWorkers bounds concurrent POM fetches and downloads.
func WithWorkers(n int) Option {
	return func(s *settings) { s.config.Workers = n }
}

// WithRetry sets the network retry policy.
func WithRetry(p httputil.Policy) Option {
	return func(s *settings) { s.config.Retry = p }
}

// WithChecksumPolicy sets how a missing .sha1 file is handled.
func WithChecksumPolicy(p repository.ChecksumPolicy) Option {
	return func(s *settings) { s.config.Checksums = p }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.config.Logger = l }
}

// Resolve resolves roots against repositories (Maven Central when empty),
// drops anything matching excludes, and downloads the result. Artifacts are
// returned in resolution order: roots first, then breadth-first.
func Resolve(ctx context.Context, roots []string, repositories []repository.Config, excludes []string, opts ...Option) ([]download.ResolvedArtifact, error) {
	s := settings{
		config:  Config{Repositories: repositories},
		request: Request{Roots: roots, Excludes: excludes, Fetch: true},
	}
	for _, opt := range opts {
		opt(&s)
	}

	runner, err := NewRunner(s.config)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	res, err := runner.Resolve(ctx, s.request)
	if err != nil {
		return nil, err
	}
	return res.Files, nil
}

// Validate checks the request without contacting any repository.
func (r Request) Validate() error {
	if len(r.Roots) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one root coordinate is required")
	}
	if _, err := resolve.ParsePolicy(string(r.Policy)); err != nil {
		return err
	}
	return nil
}
