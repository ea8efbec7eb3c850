package model

import "errors"

// Common errors used across the application
var (
	// Credential store errors
	ErrInvalidPassword = errors.New("password is too short")
	ErrInvalidUsername = errors.New("username must be 3-16 characters")
	ErrAlreadyExists   = errors.New("account already exists")
	ErrQuotaExceeded   = errors.New("account quota exceeded")
	ErrAccountNotFound = errors.New("account not found")

	// Auth gate errors
	ErrPasswordMismatch     = errors.New("password and confirmation do not match")
	ErrAlreadyRegistered    = errors.New("entity is already bound to an account")
	ErrWrongPassword        = errors.New("wrong password")
	ErrAlreadyAuthenticated = errors.New("session is already authenticated")
	ErrNoSession            = errors.New("no session for entity")
	ErrDuplicateSession     = errors.New("session already exists for entity")

	// ErrStorageUnavailable wraps credential store I/O failures; the failed
	// operation is reported to the caller and the entity stays gated
	ErrStorageUnavailable = errors.New("credential storage unavailable")
)
