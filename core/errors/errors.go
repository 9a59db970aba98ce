// Package errors provides the error kinds shared by the sqlitescan decoder,
// catalog, and query layers.
//
// Every structured error unwraps to one of the sentinels below, so callers can
// classify a failure with errors.Is regardless of how much context was added
// on the way up.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the decoder and query layers
var (
	// ErrTruncated indicates a cursor was exhausted before a required field
	ErrTruncated = errors.New("truncated")
	// ErrUnsupportedPageType indicates a page type byte outside the four b-tree kinds
	ErrUnsupportedPageType = errors.New("unsupported page type")
	// ErrUnsupportedSerialType indicates a reserved serial type code (10 or 11)
	ErrUnsupportedSerialType = errors.New("unsupported serial type")
	// ErrInvalidUTF8 indicates a text value that is not valid UTF-8
	ErrInvalidUTF8 = errors.New("invalid utf-8")
	// ErrMalformedRecord indicates a record header or trailing row id that does not decode
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnresolvedColumn indicates a column name absent from a table's column list
	ErrUnresolvedColumn = errors.New("unresolved column")
	// ErrCorruptTree indicates a child or overflow pointer that cannot belong to a well-formed b-tree
	ErrCorruptTree = errors.New("corrupt b-tree")
	// ErrMissingRootPage indicates a schema entry without a root page where one is required
	ErrMissingRootPage = errors.New("missing root page")
	// ErrNotFound indicates a schema object or page was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported feature or format
	ErrUnsupported = errors.New("unsupported")
)

// DecodeError describes a failure while decoding one field of a page, cell or record.
type DecodeError struct {
	Field  string // Field being decoded (e.g., "varint: row id")
	Offset int    // Byte offset within the buffer being decoded, -1 if unknown
	Err    error  // Underlying error
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("decoding %s at offset %d: %v", e.Field, e.Offset, e.Err)
	}
	return fmt.Sprintf("decoding %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NotFoundError represents a schema object or page that does not exist
type NotFoundError struct {
	Resource string // Type of resource (e.g., "table", "index", "page")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "open")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a failure to parse SQL text or a file header
type ParseError struct {
	Format  string // What was being parsed (e.g., "SQL", "file header")
	Input   string // Offending input, if short enough to be useful
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("failed to parse %s %q: %s", e.Format, e.Input, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewDecode creates a DecodeError for the named field
func NewDecode(field string, offset int, err error) *DecodeError {
	return &DecodeError{
		Field:  field,
		Offset: offset,
		Err:    err,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, input, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Input:   input,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
