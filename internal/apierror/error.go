package apierror

import (
	"net/http"

	"github.com/pkg/errors"
)

type (
	// An Error represents the error format rendered by the itemd server.
	Error struct {
		HTTPCode int    `json:"-"`
		Message  string `json:"error"`
		Details  string `json:"details,omitempty"`

		cause error
	}
)

// New returns a new Error with the given code and message.
func New(code int, message string) *Error {
	return &Error{HTTPCode: code, Message: message}
}

// Validation returns an error about a malformed request (missing field, invalid identifier).
func Validation(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Conflict returns an error about a uniqueness violation.
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// NotFound returns an error about a missing document.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Unavailable returns an error about an unreachable database.
// The cause message is rendered as details.
func Unavailable(message string, cause error) *Error {
	return withCause(http.StatusServiceUnavailable, message, cause)
}

// Internal returns an error about an unexpected database failure.
// The cause message is rendered as details.
func Internal(message string, cause error) *Error {
	return withCause(http.StatusInternalServerError, message, cause)
}

func withCause(code int, message string, cause error) *Error {
	err := New(code, message)
	err.cause = cause
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// StatusCode returns the HTTP status code of err.
func StatusCode(err error) int {
	var apierr *Error
	if errors.As(err, &apierr) && apierr.HTTPCode != 0 {
		return apierr.HTTPCode
	}
	return http.StatusInternalServerError
}

// Error implements error interface.
func (e *Error) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}
