// Package syncerr defines the coded error type shared by the syncx packages.
//
// Every error kind a host binding needs to translate into one of its own
// exception classes carries a stable code of the form SX-<AREA>-<NNNN>.
// Comparison with errors.Is matches on the code, so wrapped or detailed copies
// of a sentinel still compare equal to it.
package syncerr

import (
	"errors"
	"fmt"
)

// Error is a toolkit error with a structured code.
type Error struct {
	Code    string // Error code (e.g., "SX-LOCK-0001")
	Kind    Kind   // Host exception family the code maps to
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Kind names the host exception family an error maps to.
type Kind string

const (
	KindArithmetic Kind = "arithmetic"
	KindRuntime    Kind = "runtime"
	KindLookup     Kind = "lookup"
	KindType       Kind = "type"
	KindValue      Kind = "value"
	KindEmpty      Kind = "empty"
	KindFull       Kind = "full"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error.
func New(code string, kind Kind, message string) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(format string, args ...any) *Error {
	c := *e
	c.Details = fmt.Sprintf(format, args...)
	return &c
}

// Wrap returns a copy of the error wrapping the given cause.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}

// Code extracts the error code from err, or "" when err is not an *Error.
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// KindOf extracts the host exception family from err, or "" when err is not
// an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
