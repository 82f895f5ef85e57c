package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// maxSegmentLength bounds a single coordinate segment.
const maxSegmentLength = 256

// ValidateSegment validates one segment of a Maven coordinate (groupId,
// artifactId, version or classifier). Segments end up as path components in
// both repository URLs and the local cache, so they are checked for safety:
//   - No empty segments
//   - No control characters or whitespace
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
//
// The field argument names the segment in the returned error.
func ValidateSegment(field, value string) error {
	if value == "" {
		return New(ErrCodeMalformedCoordinate, "%s cannot be empty", field)
	}

	if len(value) > maxSegmentLength {
		return New(ErrCodeMalformedCoordinate, "%s too long (max %d characters)", field, maxSegmentLength)
	}

	for _, r := range value {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeMalformedCoordinate, "%s contains invalid characters: %q", field, value)
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return New(ErrCodeMalformedCoordinate, "%s contains invalid characters: %q", field, pattern)
		}
	}

	return nil
}

// ValidateRepositoryURL validates a repository base URL.
// Remote repositories must use http or https; local repositories use file://
// or an absolute filesystem path.
func ValidateRepositoryURL(raw string) error {
	if raw == "" {
		return New(ErrCodeUnsupportedRepoURL, "repository URL cannot be empty")
	}
	if strings.HasPrefix(raw, "/") {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeUnsupportedRepoURL, err, "invalid repository URL %q", raw)
	}

	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return New(ErrCodeUnsupportedRepoURL, "repository URL %q has no host", raw)
		}
	case "file":
		if u.Path == "" {
			return New(ErrCodeUnsupportedRepoURL, "repository URL %q has no path", raw)
		}
	default:
		return New(ErrCodeUnsupportedRepoURL, "repository URL must use http, https or file scheme: %q", raw)
	}
	return nil
}

// ValidateRelativePath validates a path inside a repository or cache.
// It prevents path traversal and rejects absolute paths.
func ValidateRelativePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "path must be relative (cannot start with /)")
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}

	return nil
}
