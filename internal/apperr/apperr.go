// Package apperr holds the error taxonomy shared by the entity store API and the
// board client. Handlers turn codes into HTTP statuses; the client turns HTTP
// statuses back into codes so the sync engine can decide how to notify.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "validation"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeUnavailable  Code = "unavailable"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// HTTPStatus returns the status code the API answers with for c.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus maps a non-2xx HTTP status to a code.
func FromStatus(status int) Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return CodeTimeout
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrValidation   = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden    = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnavailable  = &Error{Code: CodeUnavailable, Message: "store unavailable"}
	ErrTimeout      = &Error{Code: CodeTimeout, Message: "request timed out"}
	ErrInternal     = &Error{Code: CodeInternal, Message: "internal error"}
)

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func Validation(format string, args ...any) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(CodeForbidden, fmt.Sprintf(format, args...))
}

// CodeOf classifies any error. Context deadlines are timeouts, anything
// unrecognised is treated as a transient store failure.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeUnavailable
}

// Notice is the user-facing text for a failed mutation.
func Notice(err error) string {
	switch CodeOf(err) {
	case CodeValidation:
		return "Invalid data: " + err.Error()
	case CodeUnauthorized:
		return "Your session has expired, please sign in again"
	case CodeForbidden:
		return "You don't have permission to do that"
	case CodeNotFound:
		return "Not found: it may have been deleted"
	case CodeTimeout:
		return "The server took too long to respond"
	default:
		return "Failed to save changes"
	}
}
