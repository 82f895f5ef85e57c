package resolve

import (
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/pom"
)

// Policy selects how version conflicts are settled.
type Policy string

const (
	// NearestWins keeps the declaration closest to a root; ties go to the
	// first declaration.
	NearestWins Policy = "nearest"
	// HighestVersion keeps the highest version declared anywhere in the
	// graph.
	HighestVersion Policy = "highest"
)

const (
	// DefaultWorkers bounds concurrent POM fetches per level.
	DefaultWorkers = 8

	// maxPolicyIterations bounds the HighestVersion fixed point.
	maxPolicyIterations = 10
)

// DefaultScopes are the scopes kept when Options.Scopes is empty.
var DefaultScopes = []string{pom.ScopeCompile, pom.ScopeRuntime}

// ParsePolicy validates a policy name. Empty means nearest.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return NearestWins, nil
	case NearestWins, HighestVersion:
		return p, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidConfig, "unknown conflict policy %q (want nearest or highest)", s)
	}
}

// Options configures resolution.
type Options struct {
	Policy          Policy           // Conflict policy (default NearestWins)
	Excludes        coord.Exclusions // Exclusions applied to every root's subtree
	Scopes          []string         // Scopes to keep (default compile, runtime)
	IncludeOptional bool             // Follow optional dependencies
	Workers         int              // Concurrent POM fetches (default DefaultWorkers)
	Logger          *log.Logger      // Logger (default discards)
}

// WithDefaults returns a copy of o with zero values replaced.
func (o Options) WithDefaults() Options {
	if o.Policy == "" {
		o.Policy = NearestWins
	}
	if len(o.Scopes) == 0 {
		o.Scopes = DefaultScopes
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

func (o Options) keepsScope(scope string) bool {
	return slices.Contains(o.Scopes, scope)
}
