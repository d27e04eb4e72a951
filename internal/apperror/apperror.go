package apperror

import (
	"errors"
	"net/http"
)

// Kind identifies the class of an API failure.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindConflict      Kind = "CONFLICT"
	KindAuthorization Kind = "AUTHORIZATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindUnknown       Kind = "UNKNOWN"
)

// Error is a failure with an HTTP status attached. Anything the handlers
// surface without one is rendered as a generic 500.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// New builds an Error with an explicit status and message.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// BadRequest marks missing or malformed input.
func BadRequest(message string) *Error {
	return New(KindValidation, http.StatusBadRequest, message)
}

// Conflict marks a duplicate-question rejection. The API contract renders
// conflicts as 400, matching the upstream behavior.
func Conflict(message string) *Error {
	return New(KindConflict, http.StatusBadRequest, message)
}

// IncorrectCode marks a failed access-code check. 409 is a historical quirk
// of the API contract and is kept for client compatibility.
func IncorrectCode() *Error {
	return New(KindAuthorization, http.StatusConflict, "Incorrect code")
}

// NotFound marks a lookup against an unknown identifier.
func NotFound(message string) *Error {
	return New(KindNotFound, http.StatusNotFound, message)
}

// FromError extracts an *Error from err's chain, or nil if none is present.
func FromError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
