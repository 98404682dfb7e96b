// Package errors provides standardized domain errors with codes for the
// Lumie sync engine.
//
// Usage:
//
//	// In the gateway - return typed errors
//	if resp.StatusCode == http.StatusNotFound {
//	    return errors.NotFound("product not found")
//	}
//
//	// In the orchestrator - check with errors.Is
//	if errors.Is(err, errors.ErrUnauthorized) {
//	    o.credentials.Invalidate()
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the engine.
const (
	// CodeUnauthorized signals an expired or missing credential. It must
	// propagate to the authentication collaborator; the engine never
	// refreshes credentials itself.
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeNotFound signals a missing entity, locally or remotely.
	CodeNotFound Code = "NOT_FOUND"
	// CodeNetwork signals a transport-level failure or an unavailable
	// backend. The failing phase aborts; committed phases are preserved.
	CodeNetwork Code = "NETWORK"
	// CodeDecoding signals a payload shape mismatch in a remote response.
	CodeDecoding Code = "DECODING"
	// CodeConflict is reserved for future optimistic-lock support.
	CodeConflict Code = "CONFLICT"
	// CodeValidation signals invalid caller-supplied input.
	CodeValidation Code = "VALIDATION"
	// CodeInternal signals a local failure (store corruption, bad state).
	CodeInternal Code = "INTERNAL"
)

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrNetwork      = &Error{Code: CodeNetwork, Message: "network failure"}
	ErrDecoding     = &Error{Code: CodeDecoding, Message: "payload decoding failed"}
	ErrConflict     = &Error{Code: CodeConflict, Message: "conflict"}
	ErrValidation   = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal     = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Network creates a network error.
func Network(msg string) *Error {
	return &Error{Code: CodeNetwork, Message: msg}
}

// Decoding creates a decoding error.
func Decoding(msg string) *Error {
	return &Error{Code: CodeDecoding, Message: msg}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
