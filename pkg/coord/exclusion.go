package coord

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// Exclusion removes matching artifacts from a dependency subtree.
type Exclusion struct {
	Group    string
	Artifact string

	group    glob.Glob
	artifact glob.Glob
}

// ParseExclusion parses a "group:artifact" pattern. Either segment may
// contain "*" wildcards; a lone group ("org.slf4j") excludes every artifact
// of that group.
func ParseExclusion(s string) (Exclusion, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	switch len(parts) {
	case 1:
		return NewExclusion(parts[0], "*")
	case 2:
		return NewExclusion(parts[0], parts[1])
	default:
		return Exclusion{}, errors.New(errors.ErrCodeInvalidInput,
			"invalid exclusion %q (expected group:artifact)", s)
	}
}

// NewExclusion compiles an exclusion from its two segments. Empty segments
// are treated as "*", matching how POMs omit them.
func NewExclusion(group, artifact string) (Exclusion, error) {
	if group == "" {
		group = "*"
	}
	if artifact == "" {
		artifact = "*"
	}
	g, err := glob.Compile(group)
	if err != nil {
		return Exclusion{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid exclusion group %q", group)
	}
	a, err := glob.Compile(artifact)
	if err != nil {
		return Exclusion{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid exclusion artifact %q", artifact)
	}
	return Exclusion{Group: group, Artifact: artifact, group: g, artifact: a}, nil
}

// ParseExclusions parses a list of patterns.
func ParseExclusions(ss []string) (Exclusions, error) {
	out := make(Exclusions, 0, len(ss))
	for _, s := range ss {
		if strings.TrimSpace(s) == "" {
			continue
		}
		ex, err := ParseExclusion(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

// String returns "group:artifact".
func (e Exclusion) String() string {
	return e.Group + ":" + e.Artifact
}

// Matches reports whether c is excluded.
func (e Exclusion) Matches(c Coordinate) bool {
	if e.group == nil || e.artifact == nil {
		return e.Group == c.Group && e.Artifact == c.Artifact
	}
	return e.group.Match(c.Group) && e.artifact.Match(c.Artifact)
}

// Exclusions is an accumulated exclusion set.
type Exclusions []Exclusion

// Matches reports whether any exclusion matches c.
func (es Exclusions) Matches(c Coordinate) bool {
	for _, e := range es {
		if e.Matches(c) {
			return true
		}
	}
	return false
}

// With returns a new set holding es followed by more. The receiver is never
// modified, so sibling subtrees can share a parent set safely.
func (es Exclusions) With(more ...Exclusion) Exclusions {
	if len(more) == 0 {
		return es
	}
	out := make(Exclusions, 0, len(es)+len(more))
	out = append(out, es...)
	return append(out, more...)
}
