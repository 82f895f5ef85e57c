package cache

import (
	"slices"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/coord"
)

// Key type prefixes. They double as the keyType reported to cache hooks.
const (
	KeyTypePOM      = "pom"
	KeyTypeMetadata = "metadata"
	KeyTypeResolve  = "resolve"
)

// Keyer builds cache keys.
type Keyer interface {
	// POMKey identifies a POM document served by repo.
	POMKey(repo string, c coord.Coordinate) string

	// MetadataKey identifies maven-metadata.xml for c's group and artifact.
	MetadataKey(repo string, c coord.Coordinate) string

	// ResolveKey identifies a complete resolution result.
	ResolveKey(opts ResolveKeyOpts) string
}

// ResolveKeyOpts are the inputs that determine a resolution result.
type ResolveKeyOpts struct {
	Roots           []string `json:"roots"`
	Repositories    []string `json:"repositories"`
	Excludes        []string `json:"excludes,omitempty"`
	Policy          string   `json:"policy"`
	Scopes          []string `json:"scopes,omitempty"`
	IncludeOptional bool     `json:"include_optional,omitempty"`
}

// DefaultKeyer produces human-readable keys for documents and hashed keys
// for resolution results.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) POMKey(repo string, c coord.Coordinate) string {
	return KeyTypePOM + ":" + strings.TrimSuffix(repo, "/") + ":" + c.POMPath()
}

func (DefaultKeyer) MetadataKey(repo string, c coord.Coordinate) string {
	return KeyTypeMetadata + ":" + strings.TrimSuffix(repo, "/") + ":" + c.MetadataPath()
}

// ResolveKey hashes opts. Excludes and scopes are order-insensitive. Roots
// and repositories are not: root order breaks ties between equal-depth
// declarations and fixes the output order, and repository order decides
// which one serves a file.
func (DefaultKeyer) ResolveKey(opts ResolveKeyOpts) string {
	norm := opts
	norm.Excludes = sorted(opts.Excludes)
	norm.Scopes = sorted(opts.Scopes)
	return digestKey(KeyTypeResolve, norm)
}

func sorted(ss []string) []string {
	out := slices.Clone(ss)
	slices.Sort(out)
	return out
}

// ScopedKeyer wraps a Keyer with a prefix for credential isolation.
// Documents fetched with credentials are keyed under a scope derived from
// those credentials so they are never served to another identity.
//
// Example usage:
//
//	// Keys for an authenticated repository
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "auth:"+ShortHash(url, user)+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is placed after the key type so hooks still see "pom" or
// "metadata" as the key type.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) scope(key string) string {
	typ, rest, ok := strings.Cut(key, ":")
	if !ok {
		return k.prefix + key
	}
	return typ + ":" + k.prefix + rest
}

func (k *ScopedKeyer) POMKey(repo string, c coord.Coordinate) string {
	return k.scope(k.inner.POMKey(repo, c))
}

func (k *ScopedKeyer) MetadataKey(repo string, c coord.Coordinate) string {
	return k.scope(k.inner.MetadataKey(repo, c))
}

func (k *ScopedKeyer) ResolveKey(opts ResolveKeyOpts) string {
	return k.scope(k.inner.ResolveKey(opts))
}
