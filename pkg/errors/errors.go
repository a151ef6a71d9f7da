// Package errors provides the coded error type shared by the lightdesk
// packages, the HTTP API and the CLI.
//
// Codes are machine readable and stable; the HTTP layer maps them onto
// status codes and the CLI prints [UserMessage] without the code prefix.
//
//	err := errors.New(errors.ErrCodeUnknownKind, "no kind registered as %q", name)
//	if errors.Is(err, errors.ErrCodeUnknownKind) {
//	    // reject the config change
//	}
//
//	err = errors.Wrap(errors.ErrCodeStore, cause, "save config to %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input validation
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidKind   Code = "INVALID_KIND"
	ErrCodeInvalidID     Code = "INVALID_ID"

	// Kind registry
	ErrCodeUnknownKind   Code = "UNKNOWN_KIND"
	ErrCodeDuplicateKind Code = "DUPLICATE_KIND"

	// Lookups
	ErrCodeNotFound Code = "NOT_FOUND"

	// Collaborators
	ErrCodeStore     Code = "STORE_ERROR"
	ErrCodeTransport Code = "TRANSPORT_ERROR"

	// Internal
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
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

// Is reports whether the outermost *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, or "" if there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix.
// Errors that are not *Error are returned as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsValidation reports whether err is one of the input validation codes.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidKind, ErrCodeInvalidID, ErrCodeUnknownKind:
		return true
	}
	return false
}
