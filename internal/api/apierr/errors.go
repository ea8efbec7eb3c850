package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spawnguard/spawnguard/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidPassword      = "INVALID_PASSWORD"
	CodeInvalidUsername      = "INVALID_USERNAME"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeQuotaExceeded        = "QUOTA_EXCEEDED"
	CodePasswordMismatch     = "PASSWORD_MISMATCH"
	CodeAlreadyRegistered    = "ALREADY_REGISTERED"
	CodeAccountNotFound      = "ACCOUNT_NOT_FOUND"
	CodeWrongPassword        = "WRONG_PASSWORD"
	CodeAlreadyAuthenticated = "ALREADY_AUTHENTICATED"
	CodeNoSession            = "NO_SESSION"
	CodeDuplicateSession     = "DUPLICATE_SESSION"
	CodeEntityNotFound       = "ENTITY_NOT_FOUND"
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidPassword):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPassword, "Password is too short"}}
	case errors.Is(err, model.ErrInvalidUsername):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidUsername, "Username must be 3-16 characters"}}
	case errors.Is(err, model.ErrAlreadyExists):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyExists, "Account already exists"}}
	case errors.Is(err, model.ErrQuotaExceeded):
		return &httpError{http.StatusConflict, APIError{CodeQuotaExceeded, "Account quota exceeded"}}
	case errors.Is(err, model.ErrPasswordMismatch):
		return &httpError{http.StatusBadRequest, APIError{CodePasswordMismatch, "Password and confirmation do not match"}}
	case errors.Is(err, model.ErrAlreadyRegistered):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyRegistered, "Entity is already bound to an account"}}
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAccountNotFound, "Account not found"}}
	case errors.Is(err, model.ErrWrongPassword):
		return &httpError{http.StatusUnauthorized, APIError{CodeWrongPassword, "Wrong password"}}
	case errors.Is(err, model.ErrAlreadyAuthenticated):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyAuthenticated, "Session is already authenticated"}}
	case errors.Is(err, model.ErrNoSession):
		return &httpError{http.StatusNotFound, APIError{CodeNoSession, "No session for entity"}}
	case errors.Is(err, model.ErrDuplicateSession):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateSession, "Session already exists for entity"}}
	case errors.Is(err, model.ErrStorageUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStorageUnavailable, "Credential storage unavailable"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error with a message
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewEntityNotFoundError creates a not-found error for an absent entity
func NewEntityNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeEntityNotFound, "Entity not present in world"}}
}

// NewEntityExistsError creates a conflict error for an already spawned entity
func NewEntityExistsError() error {
	return &httpError{http.StatusConflict, APIError{CodeDuplicateSession, "Entity already present in world"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
