package storage

import (
	"context"

	"github.com/spawnguard/spawnguard/internal/model"
)

// Store defines the interface for credential persistence. Records live in
// two collections: accounts keyed by username, and bindings keyed by the
// owning entity's identity. The binding collection lets a returning entity
// reattach to its last-known account without re-entering the username.
//
// Lookups for a missing key return model.ErrAccountNotFound; I/O failures
// wrap model.ErrStorageUnavailable.
type Store interface {
	// Account operations (by-username collection)
	SaveAccount(ctx context.Context, rec *model.CredentialRecord) error
	GetAccount(ctx context.Context, username string) (*model.CredentialRecord, error)
	AccountExists(ctx context.Context, username string) (bool, error)

	// Binding operations (by-identity collection)
	SaveBinding(ctx context.Context, id model.Identity, rec *model.CredentialRecord) error
	GetBinding(ctx context.Context, id model.Identity) (*model.CredentialRecord, error)
	DeleteBinding(ctx context.Context, id model.Identity) error
}
