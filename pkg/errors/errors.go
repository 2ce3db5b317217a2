// Package errors provides structured error types for the resolver.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - The originating document location for diagnosis
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes follow the resolution failure taxonomy:
//   - NOT_FOUND: missing file, artifact, repository match or version match
//   - TRANSPORT: I/O or download failure
//   - MALFORMED: structural violation in a document
//   - UPSTREAM: a parent or dependency descriptor failed
//   - INVALID_INPUT: caller-supplied coordinates or constraints are unusable
//
// Cancellation is deliberately absent: context.Canceled and
// context.DeadlineExceeded are returned as-is and never wrapped in an *Error.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "no version of %s matches %s", coord, constraint)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // try something else
//	}
//
//	// Wrap existing errors and remember where they happened
//	err := errors.Wrap(errors.ErrCodeTransport, origErr, "download failed").At(url)
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidCoordinate Code = "INVALID_COORDINATE"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// I/O and network errors
	ErrCodeTransport Code = "TRANSPORT"

	// Document structure errors
	ErrCodeMalformed Code = "MALFORMED"

	// A descriptor this one depends on failed
	ErrCodeUpstream Code = "UPSTREAM"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code     Code   // Machine-readable error code
	Message  string // Human-readable message
	Location string // Document location or URI the error originated from (optional)
	Cause    error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Location != "" {
		msg += " (" + e.Location + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// At records the location the error originated from and returns e.
func (e *Error) At(location string) *Error {
	e.Location = location
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

// Upstream wraps the failure of a descriptor this one depends on.
// Cancellation is returned unchanged so that it is never reinterpreted as an error.
func Upstream(cause error, format string, args ...any) error {
	if IsCancelled(cause) {
		return cause
	}
	return Wrap(ErrCodeUpstream, cause, format, args...)
}

// IsCancelled reports whether err is (or wraps) a context cancellation or deadline.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As is errors.As from the standard library, so callers need a single import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Location != "" {
			return e.Message + " (" + e.Location + ")"
		}
		return e.Message
	}
	return err.Error()
}
