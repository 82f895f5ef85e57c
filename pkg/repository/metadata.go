package repository

import (
	"bytes"
	"encoding/xml"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// Metadata is the artifact-level maven-metadata.xml document.
type Metadata struct {
	XMLName    xml.Name `xml:"metadata"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Versioning struct {
		Latest      string   `xml:"latest"`
		Release     string   `xml:"release"`
		Versions    []string `xml:"versions>version"`
		LastUpdated string   `xml:"lastUpdated"`
	} `xml:"versioning"`
}

// ParseMetadata decodes maven-metadata.xml.
func ParseMetadata(data []byte) (*Metadata, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	var m Metadata
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDescriptor, err, "parse maven-metadata.xml")
	}
	return &m, nil
}
