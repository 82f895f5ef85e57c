package coord

import (
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// DefaultPackaging is assumed when a coordinate or dependency declares none.
const DefaultPackaging = "jar"

// Coordinate identifies a Maven artifact.
//
// Coordinates are plain values: copy them freely and compare identity with
// [Coordinate.Key]. Packaging is not part of the string form; an empty
// Packaging means "jar".
type Coordinate struct {
	Group      string `json:"group"`                // groupId, e.g. "com.google.guava"
	Artifact   string `json:"artifact"`             // artifactId, e.g. "guava"
	Version    string `json:"version"`              // version or version range, e.g. "32.1.3-jre"
	Classifier string `json:"classifier,omitempty"` // optional classifier, e.g. "sources"
	Packaging  string `json:"packaging,omitempty"`  // optional packaging/type, e.g. "pom" or "test-jar"
}

// Key is the identity of an artifact independent of its version.
// It is comparable and used as a map key throughout resolution.
type Key struct {
	Group      string
	Artifact   string
	Classifier string
	Packaging  string
}

// String returns "group:artifact".
func (k Key) String() string {
	s := k.Group + ":" + k.Artifact
	if k.Classifier != "" {
		s += ":" + k.Classifier
	}
	return s
}

// Parse parses "group:artifact:version" or "group:artifact:classifier:version".
// Any other number of segments, or an empty or unsafe segment, yields an
// error with code [errors.ErrCodeMalformedCoordinate].
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")

	var c Coordinate
	switch len(parts) {
	case 3:
		c = Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}
	case 4:
		c = Coordinate{Group: parts[0], Artifact: parts[1], Classifier: parts[2], Version: parts[3]}
	default:
		return Coordinate{}, errors.New(errors.ErrCodeMalformedCoordinate,
			"invalid maven coordinate %q (expected group:artifact:version or group:artifact:classifier:version)", s)
	}

	fields := []struct{ name, value string }{
		{"groupId", c.Group},
		{"artifactId", c.Artifact},
		{"classifier", c.Classifier},
		{"version", c.Version},
	}
	for _, f := range fields {
		if f.name == "classifier" && len(parts) == 3 {
			continue
		}
		if err := errors.ValidateSegment(f.name, f.value); err != nil {
			return Coordinate{}, err.(*errors.Error).WithCoordinate(s)
		}
	}
	return c, nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(s string) Coordinate {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseAll parses every string, stopping at the first failure.
func ParseAll(ss []string) ([]Coordinate, error) {
	out := make([]Coordinate, 0, len(ss))
	for _, s := range ss {
		c, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// String formats the coordinate in the same form [Parse] accepts.
func (c Coordinate) String() string {
	if c.Classifier != "" {
		return c.Group + ":" + c.Artifact + ":" + c.Classifier + ":" + c.Version
	}
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// GA returns "group:artifact".
func (c Coordinate) GA() string {
	return c.Group + ":" + c.Artifact
}

// Key returns the version-independent identity of c.
func (c Coordinate) Key() Key {
	return Key{
		Group:      c.Group,
		Artifact:   c.Artifact,
		Classifier: c.classifier(),
		Packaging:  c.packaging(),
	}
}

// WithVersion returns a copy of c with the version replaced.
func (c Coordinate) WithVersion(v string) Coordinate {
	c.Version = v
	return c
}

// WithPackaging returns a copy of c with the packaging replaced.
func (c Coordinate) WithPackaging(p string) Coordinate {
	c.Packaging = p
	return c
}

// IsZero reports whether c is the zero Coordinate.
func (c Coordinate) IsZero() bool {
	return c == Coordinate{}
}

// Extension returns the file extension used for the artifact's packaging.
// Packagings that produce jars map to "jar"; anything else is used verbatim.
func (c Coordinate) Extension() string {
	switch p := c.packaging(); p {
	case "jar", "bundle", "maven-plugin", "ejb", "test-jar", "java-source", "javadoc":
		return "jar"
	default:
		return p
	}
}

// RepositoryPath returns the artifact file path in Maven repository layout:
//
//	com/example/lib/1.0/lib-1.0[-classifier].jar
func (c Coordinate) RepositoryPath() string {
	name := c.Artifact + "-" + c.Version
	if cl := c.classifier(); cl != "" {
		name += "-" + cl
	}
	return c.versionDir() + "/" + name + "." + c.Extension()
}

// POMPath returns the path of the artifact's POM. Classifiers share the POM
// of the main artifact.
func (c Coordinate) POMPath() string {
	return c.versionDir() + "/" + c.Artifact + "-" + c.Version + ".pom"
}

// MetadataPath returns the path of the artifact-level maven-metadata.xml.
func (c Coordinate) MetadataPath() string {
	return c.artifactDir() + "/maven-metadata.xml"
}

// POM returns the coordinate of the POM describing c.
func (c Coordinate) POM() Coordinate {
	return Coordinate{Group: c.Group, Artifact: c.Artifact, Version: c.Version, Packaging: "pom"}
}

func (c Coordinate) artifactDir() string {
	return strings.ReplaceAll(c.Group, ".", "/") + "/" + c.Artifact
}

func (c Coordinate) versionDir() string {
	return c.artifactDir() + "/" + c.Version
}

func (c Coordinate) packaging() string {
	if c.Packaging == "" {
		return DefaultPackaging
	}
	return c.Packaging
}

// test-jar implies the "tests" classifier.
func (c Coordinate) classifier() string {
	if c.Classifier == "" && c.Packaging == "test-jar" {
		return "tests"
	}
	return c.Classifier
}
