package simpleexport

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrMalformedDataURL indicates a data-URL without the "<mime>;base64,<payload>" layout
	ErrMalformedDataURL = errors.New("malformed data url")

	// ErrInvalidBase64 indicates a data-URL payload outside the base64 alphabet
	ErrInvalidBase64 = errors.New("invalid base64 payload")

	// ErrInvalidJSON indicates JSON text that could not be parsed
	ErrInvalidJSON = errors.New("invalid json")

	// ErrMissingSource indicates an image element without a src attribute
	ErrMissingSource = errors.New("image has no source")

	// ErrMissingCollaborator indicates an exporter was called without the service it needs
	ErrMissingCollaborator = errors.New("collaborator not configured")

	// ErrUnsupportedInput indicates an input variant the exporter does not know
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrUnknownReference indicates a "blob:" href the host did not mint or already revoked
	ErrUnknownReference = errors.New("unknown object url")

	// ErrRemoteUnavailable indicates a host asked to save a remote URL it cannot fetch
	ErrRemoteUnavailable = errors.New("remote fetch not available")
)

// DecodeError is returned when a data-URL cannot be decoded
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode data url %q: %v", truncate(e.Input, 48), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ParseError is returned when JSON text had to be parsed and was not valid
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse json: %v", e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrInvalidJSON, e.Err}
}

// ValidationError describes an export target that cannot be saved.
// It is logged, never returned to the caller.
type ValidationError struct {
	Op     string
	Target string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid target %s: %v", e.Op, e.Target, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ExportError represents a collaborator failure during an export operation
type ExportError struct {
	Op  string
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export operation %s failed: %v", e.Op, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
