package handler

import (
	"net/http"

	"github.com/spawnguard/spawnguard/internal/api/apierr"
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewEntityNotFoundError creates a not-found error for an absent entity
func NewEntityNotFoundError() error {
	return apierr.NewEntityNotFoundError()
}

// NewEntityExistsError creates a conflict error for an already spawned entity
func NewEntityExistsError() error {
	return apierr.NewEntityExistsError()
}
