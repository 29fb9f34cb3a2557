// Package domainerrors provides coded errors that flow from services to the
// HTTP boundary. Services create or wrap errors with a Code; the transport
// layer maps codes onto status lines without string matching.
//
// Stores do not use this package directly: they return sentinel errors
// (pkg/platform/sentinel) and services translate.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for boundary translation.
type Code string

const (
	// Ambient codes shared by every module.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"

	// Admission-specific codes.
	CodeInvalidIdentity   Code = "invalid_identity"
	CodeCapacityExceeded  Code = "capacity_exceeded"
	CodeInvalidTransition Code = "invalid_transition"
	CodeDuplicateIdentity Code = "duplicate_identity_conflict"
	CodeTokenInvalid      Code = "token_invalid"
	CodeNotApproved       Code = "request_not_approved"
)

// Error carries a classification code plus a caller-facing message. The
// wrapped cause, when present, is for logs only and never serialized.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the code from an error chain. Unclassified errors report
// CodeInternal so boundaries never leak raw failures.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Is is a readability alias for HasCode used throughout tests.
func Is(err error, code Code) bool { return HasCode(err, code) }

// MessageOf extracts the caller-facing message, or empty for unclassified errors.
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}
