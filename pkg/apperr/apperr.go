// Package apperr contains sentinel errors shared by the repository,
// service and handler layers, and their HTTP status mapping.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates the requested note does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or wrong note password.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates a request is missing a required field.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a unique constraint violation (noteId taken).
	ErrConflict = errors.New("conflict")
)

// HTTPStatus maps an error chain to the status code the handlers reply with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
