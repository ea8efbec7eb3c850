package model

import "time"

// CredentialRecord is the persisted account record for a registered username.
// The same record shape is stored twice: once keyed by username (the account
// collection) and once keyed by the owning entity's identity (the binding
// collection, used to reattach a returning entity to its last-known account).
type CredentialRecord struct {
	Username string `json:"username"`
	// PasswordHash is a bcrypt hash of the trimmed password
	PasswordHash string `json:"password_hash"`
	// AccountCount is the number of accounts created by the owning identity,
	// used for quota enforcement
	AccountCount int `json:"account_count"`
	// PseudoIdentity is a generated stand-in identifier that may be
	// substituted for the real identity in exported records
	PseudoIdentity string    `json:"pseudo_identity,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
