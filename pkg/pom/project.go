package pom

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/coord"
	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// Project is a raw, uninterpolated pom.xml.
type Project struct {
	XMLName     xml.Name   `xml:"project"`
	GroupID     string     `xml:"groupId"`
	ArtifactID  string     `xml:"artifactId"`
	Version     string     `xml:"version"`
	Packaging   string     `xml:"packaging"`
	Name        string     `xml:"name"`
	Description string     `xml:"description"`
	URL         string     `xml:"url"`
	Parent      *Parent    `xml:"parent"`
	Properties  Properties `xml:"properties"`

	DependencyManagement struct {
		Dependencies []Dependency `xml:"dependencies>dependency"`
	} `xml:"dependencyManagement"`

	Dependencies []Dependency `xml:"dependencies>dependency"`

	DistributionManagement struct {
		Relocation *Relocation `xml:"relocation"`
	} `xml:"distributionManagement"`
}

// Parent references the parent POM.
type Parent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// Coordinate returns the parent POM coordinate.
func (p *Parent) Coordinate() coord.Coordinate {
	return coord.Coordinate{Group: p.GroupID, Artifact: p.ArtifactID, Version: p.Version, Packaging: "pom"}
}

// Dependency is a <dependency> entry from dependencies or dependencyManagement.
type Dependency struct {
	GroupID    string      `xml:"groupId"`
	ArtifactID string      `xml:"artifactId"`
	Version    string      `xml:"version"`
	Type       string      `xml:"type"`
	Classifier string      `xml:"classifier"`
	Scope      string      `xml:"scope"`
	Optional   string      `xml:"optional"`
	Exclusions []Exclusion `xml:"exclusions>exclusion"`
}

// Exclusion is an <exclusion> entry.
type Exclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// Relocation is distributionManagement/relocation. Empty fields keep the
// value of the relocated artifact.
type Relocation struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Message    string `xml:"message"`
}

// Properties holds <properties> children by element name.
type Properties map[string]string

// UnmarshalXML reads arbitrary child elements as key/value pairs.
func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if *p == nil {
		*p = make(Properties)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			(*p)[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			return nil
		}
	}
}

// Parse decodes a pom.xml document.
func Parse(data []byte) (*Project, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var p Project
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDescriptor, err, "parse pom")
	}
	p.trim()
	return &p, nil
}

// Coordinate returns the project coordinate with groupId and version
// inherited from the parent when omitted.
func (p *Project) Coordinate() coord.Coordinate {
	c := coord.Coordinate{Group: p.GroupID, Artifact: p.ArtifactID, Version: p.Version}
	if p.Parent != nil {
		if c.Group == "" {
			c.Group = p.Parent.GroupID
		}
		if c.Version == "" {
			c.Version = p.Parent.Version
		}
	}
	return c
}

func (p *Project) trim() {
	p.GroupID = strings.TrimSpace(p.GroupID)
	p.ArtifactID = strings.TrimSpace(p.ArtifactID)
	p.Version = strings.TrimSpace(p.Version)
	p.Packaging = strings.TrimSpace(p.Packaging)
	if p.Parent != nil {
		p.Parent.GroupID = strings.TrimSpace(p.Parent.GroupID)
		p.Parent.ArtifactID = strings.TrimSpace(p.Parent.ArtifactID)
		p.Parent.Version = strings.TrimSpace(p.Parent.Version)
	}
	for i := range p.Dependencies {
		p.Dependencies[i].trim()
	}
	for i := range p.DependencyManagement.Dependencies {
		p.DependencyManagement.Dependencies[i].trim()
	}
}

func (d *Dependency) trim() {
	d.GroupID = strings.TrimSpace(d.GroupID)
	d.ArtifactID = strings.TrimSpace(d.ArtifactID)
	d.Version = strings.TrimSpace(d.Version)
	d.Type = strings.TrimSpace(d.Type)
	d.Classifier = strings.TrimSpace(d.Classifier)
	d.Scope = strings.TrimSpace(d.Scope)
	d.Optional = strings.TrimSpace(d.Optional)
	for i := range d.Exclusions {
		d.Exclusions[i].GroupID = strings.TrimSpace(d.Exclusions[i].GroupID)
		d.Exclusions[i].ArtifactID = strings.TrimSpace(d.Exclusions[i].ArtifactID)
	}
}

// charsetReader accepts the Latin-1 declarations found on older POMs.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "latin1", "latin-1", "windows-1252", "cp1252":
		data, err := io.ReadAll(input)
		if err != nil {
			return nil, err
		}
		runes := make([]rune, len(data))
		for i, b := range data {
			runes[i] = rune(b)
		}
		return strings.NewReader(string(runes)), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidDescriptor, "unsupported pom encoding %q", charset)
	}
}

// ManagementKey identifies a dependency inside dependencyManagement.
func (d Dependency) ManagementKey() string {
	t := d.Type
	if t == "" {
		t = coord.DefaultPackaging
	}
	return d.GroupID + ":" + d.ArtifactID + ":" + t + ":" + d.Classifier
}

// Coordinate returns the dependency as a coordinate.
func (d Dependency) Coordinate() coord.Coordinate {
	return coord.Coordinate{
		Group:      d.GroupID,
		Artifact:   d.ArtifactID,
		Version:    d.Version,
		Classifier: d.Classifier,
		Packaging:  d.Type,
	}
}

// IsOptional reports whether the dependency is marked optional.
func (d Dependency) IsOptional() bool {
	return strings.EqualFold(d.Optional, "true")
}

// EffectiveScope returns the declared scope, defaulting to compile.
func (d Dependency) EffectiveScope() string {
	if d.Scope == "" {
		return ScopeCompile
	}
	return d.Scope
}

// Dependency scopes.
const (
	ScopeCompile  = "compile"
	ScopeRuntime  = "runtime"
	ScopeProvided = "provided"
	ScopeTest     = "test"
	ScopeSystem   = "system"
	ScopeImport   = "import"
)
