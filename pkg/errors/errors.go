// Package errors provides structured error types for mvnfetch.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the library API and the server
//   - Machine-readable error codes for programmatic handling
//   - Errors that carry the offending Maven coordinate
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes name the failure kind rather than the component that produced it:
//   - MALFORMED_COORDINATE: a coordinate string could not be parsed
//   - NOT_FOUND: no configured repository has the requested resource
//   - NETWORK_ERROR: transport failure after retries were exhausted
//   - CHECKSUM_MISMATCH: downloaded bytes do not match the published checksum
//   - MISSING_DEPENDENCY: a required dependency could not be found
//   - CACHE_CORRUPTION: the local cache holds different bytes for a coordinate
//   - CANCELLED: the caller cancelled the operation
//   - PARTIAL_RESOLUTION: one or more artifacts failed to download
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedCoordinate, "expected 3 or 4 segments in %q", s)
//	if errors.Is(err, errors.ErrCodeMalformedCoordinate) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors and attach the coordinate
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url).WithCoordinate("g:a:1.0")
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput        Code = "INVALID_INPUT"
	ErrCodeInvalidConfig       Code = "INVALID_CONFIG"
	ErrCodeMalformedCoordinate Code = "MALFORMED_COORDINATE"
	ErrCodeInvalidVersionRange Code = "INVALID_VERSION_RANGE"
	ErrCodeInvalidDescriptor   Code = "INVALID_DESCRIPTOR"
	ErrCodeUnsupportedRepoURL  Code = "UNSUPPORTED_REPOSITORY"
	ErrCodeNoMatchingVersion   Code = "NO_MATCHING_VERSION"
	ErrCodeParentChainTooDeep  Code = "PARENT_CHAIN_TOO_DEEP"

	// Resolution errors
	ErrCodeMissingDependency Code = "MISSING_DEPENDENCY"
	ErrCodePartialResolution Code = "PARTIAL_RESOLUTION"

	// Integrity errors
	ErrCodeChecksumMismatch    Code = "CHECKSUM_MISMATCH"
	ErrCodeChecksumUnavailable Code = "CHECKSUM_UNAVAILABLE"
	ErrCodeCacheCorruption     Code = "CACHE_CORRUPTION"

	// Resource not found errors
	ErrCodeRunNotFound Code = "RUN_NOT_FOUND"
	ErrCodeNotFound    Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

	// Internal errors
	ErrCodeCancelled Code = "CANCELLED"
	ErrCodeInternal  Code = "INTERNAL_ERROR"
)

var (
	// ErrNotFound is returned when a resource doesn't exist in any repository.
	// *Error values with ErrCodeNotFound match it with the standard errors.Is.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code       Code   // Machine-readable error code
	Message    string // Human-readable message
	Coordinate string // Offending coordinate (optional)
	Cause      error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	if e.Coordinate != "" && !strings.Contains(e.Message, e.Coordinate) {
		b.WriteString(e.Coordinate)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets the standard errors.Is match coded errors against the package
// sentinels, so callers don't need to care which form they got.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == ErrCodeNotFound || e.Code == ErrCodeMissingDependency
	case ErrNetwork:
		return e.Code == ErrCodeNetwork
	case context.Canceled:
		return e.Code == ErrCodeCancelled
	}
	return false
}

// WithCoordinate returns e with the offending coordinate attached.
func (e *Error) WithCoordinate(coord string) *Error {
	e.Coordinate = coord
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	if c, ok := err.(interface{ Code() Code }); ok {
		return c.Code() == code
	}
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	if c, ok := err.(interface{ Code() Code }); ok {
		return c.Code()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// CoordinateOf returns the first coordinate attached anywhere in the chain.
func CoordinateOf(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Coordinate != "" {
			return e.Coordinate
		}
		err = e.Cause
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Coordinate != "" && !strings.Contains(e.Message, e.Coordinate) {
			return e.Coordinate + ": " + e.Message
		}
		return e.Message
	}
	return err.Error()
}

// Cancelled converts a context error into a CANCELLED error.
// Non-context errors are returned unchanged.
func Cancelled(err error) error {
	if err == nil {
		return nil
	}
	if Is(err, ErrCodeCancelled) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrCodeCancelled, err, "operation cancelled")
	}
	return err
}

// Failure pairs a coordinate with the error that stopped it.
type Failure struct {
	Coordinate string
	Err        error
}

// PartialResolutionError reports every coordinate that failed once all
// parallel attempts have completed.
type PartialResolutionError struct {
	Failures []Failure
	Total    int
}

// Error implements the error interface.
func (e *PartialResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d of %d artifacts failed", ErrCodePartialResolution, len(e.Failures), e.Total)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %s", f.Coordinate, UserMessage(f.Err))
	}
	return b.String()
}

// Unwrap exposes each failure so errors.Is and errors.As can see them.
func (e *PartialResolutionError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Code returns the error code for this error type.
func (e *PartialResolutionError) Code() Code {
	return ErrCodePartialResolution
}

// Coordinates lists the failed coordinates in report order.
func (e *PartialResolutionError) Coordinates() []string {
	out := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Coordinate
	}
	return out
}
