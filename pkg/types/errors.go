package types

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below matches exactly one of these via errors.Is.
var (
	ErrInvalidCategory = errors.New("invalid category")

	// Job taxonomy
	ErrValidation        = errors.New("validation failed")
	ErrParse             = errors.New("source is not syntactically valid")
	ErrModelInvocation   = errors.New("model invocation failed")
	ErrModelResponse     = errors.New("model response unreadable")
	ErrMissingFileHeader = errors.New("reply contains no file header")
	ErrMalformedReply    = errors.New("reply violates the file header grammar")
)

// ValidationError reports bad input detected before any parsing or network cost
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError creates a ValidationError
func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ParseError reports source text that does not parse for the declared language
type ParseError struct {
	File     string
	Language Language
	Line     int
	Column   int
	Message  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s syntax error at %d:%d: %s", e.File, e.Language, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s syntax error: %s", e.File, e.Language, e.Message)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ModelInvocationError reports a transport or model level failure
type ModelInvocationError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("%s call to %s failed: %v", e.Provider, e.Model, e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

func (e *ModelInvocationError) Is(target error) bool { return target == ErrModelInvocation }

// ModelResponseError reports a successful call whose payload could not be read.
// Raw keeps the payload for diagnosis.
type ModelResponseError struct {
	Provider string
	Reason   string
	Raw      string
}

func (e *ModelResponseError) Error() string {
	return fmt.Sprintf("invalid %s response: %s\nraw response: %s", e.Provider, e.Reason, e.Raw)
}

func (e *ModelResponseError) Is(target error) bool { return target == ErrModelResponse }

// MissingFileHeaderError reports a reply without a single file header marker
type MissingFileHeaderError struct {
	ChunkIndex int
	Excerpt    string
}

func (e *MissingFileHeaderError) Error() string {
	return fmt.Sprintf("reply for chunk %d did not contain any file headers (starts with %q)", e.ChunkIndex+1, e.Excerpt)
}

func (e *MissingFileHeaderError) Is(target error) bool { return target == ErrMissingFileHeader }

// MalformedReplyError reports a file header whose path is unusable
type MalformedReplyError struct {
	ChunkIndex int
	Path       string
	Reason     string
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("reply for chunk %d has bad file header %q: %s", e.ChunkIndex+1, e.Path, e.Reason)
}

func (e *MalformedReplyError) Is(target error) bool { return target == ErrMalformedReply }
