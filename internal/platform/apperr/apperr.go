// Package apperr defines the application error taxonomy and its mapping to
// HTTP responses. Services return these typed errors; the echo error handler
// renders them as a consistent JSON envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an operational application error with a stable machine code.
type Error struct {
	Code    string
	Status  int
	Message string
	// Details carries field-level validation messages, when present.
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an application error with an explicit status and code.
func New(status int, code, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Validation reports malformed or missing input. details lists the
// individual field problems for the client.
func Validation(message string, details ...string) *Error {
	return &Error{Code: "VALIDATION_ERROR", Status: http.StatusBadRequest, Message: message, Details: details}
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "authentication required"
	}
	return &Error{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Message: message}
}

// Forbidden reports an authenticated caller lacking permission.
func Forbidden(message string) *Error {
	if message == "" {
		message = "access denied"
	}
	return &Error{Code: "FORBIDDEN", Status: http.StatusForbidden, Message: message}
}

// NotFound reports an absent resource, named for the client.
func NotFound(resource string) *Error {
	return &Error{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// Conflict reports a state collision, e.g. a booking capacity violation.
func Conflict(message string) *Error {
	return &Error{Code: "CONFLICT", Status: http.StatusConflict, Message: message}
}

// As unwraps err into an *Error, or nil if it is not one.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsNotFound reports whether err is a NOT_FOUND application error.
func IsNotFound(err error) bool {
	e := As(err)
	return e != nil && e.Code == "NOT_FOUND"
}

// IsConflict reports whether err is a CONFLICT application error.
func IsConflict(err error) bool {
	e := As(err)
	return e != nil && e.Code == "CONFLICT"
}
