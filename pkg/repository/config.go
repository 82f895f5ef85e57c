package repository

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// CentralURL is Maven Central, used when no repository is configured.
const CentralURL = "https://repo.maven.apache.org/maven2"

// Config describes one repository.
type Config struct {
	ID       string `json:"id,omitempty" toml:"id" yaml:"id,omitempty"`
	URL      string `json:"url" toml:"url" yaml:"url"`
	Username string `json:"username,omitempty" toml:"username" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" toml:"password" yaml:"password,omitempty"`
}

// HasCredentials reports whether basic auth is configured.
func (c Config) HasCredentials() bool {
	return c.Username != "" || c.Password != ""
}

// IsLocal reports whether the repository is read from the filesystem.
func (c Config) IsLocal() bool {
	return strings.HasPrefix(c.URL, "file:") || strings.HasPrefix(c.URL, "/")
}

// Redacted returns c without its password, for logs and run history.
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = "****"
	}
	return c
}

// Normalize validates cfgs and fills defaults: Maven Central when the list
// is empty, ids "repo0", "repo1", ... for unnamed entries, and URLs without
// trailing slashes.
func Normalize(cfgs []Config) ([]Config, error) {
	if len(cfgs) == 0 {
		return []Config{{ID: "central", URL: CentralURL}}, nil
	}

	out := make([]Config, len(cfgs))
	seen := make(map[string]bool, len(cfgs))
	for i, c := range cfgs {
		c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
		if err := errors.ValidateRepositoryURL(c.URL); err != nil {
			return nil, err
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("repo%d", i)
		}
		if seen[c.ID] {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "duplicate repository id %q", c.ID)
		}
		seen[c.ID] = true
		out[i] = c
	}
	return out, nil
}

// FromURLs builds configs from bare URLs.
func FromURLs(urls []string) []Config {
	out := make([]Config, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, Config{URL: u})
		}
	}
	return out
}

// localRoot converts a file:// URL or absolute path to a directory.
func localRoot(raw string) (string, error) {
	if strings.HasPrefix(raw, "/") {
		return filepath.Clean(raw), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnsupportedRepoURL, err, "invalid repository URL %q", raw)
	}
	return filepath.FromSlash(u.Path), nil
}
