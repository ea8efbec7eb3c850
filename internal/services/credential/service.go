package credential

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/spawnguard/spawnguard/internal/dependencies/clock"
	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/storage"
)

// Config holds configuration for the credential service
type Config struct {
	// MinPasswordLen is the minimum length of a trimmed password
	MinPasswordLen int
	// StrictUsernames enforces the 3-16 character username rule
	StrictUsernames bool
	// MaxAccounts caps how many accounts one identity may create
	MaxAccounts int
}

// DefaultConfig returns default credential configuration
func DefaultConfig() Config {
	return Config{
		MinPasswordLen:  4,
		StrictUsernames: true,
		MaxAccounts:     3,
	}
}

// Service manages credential records: validation, hashing, quota
// enforcement, and the by-identity binding that reattaches a returning
// entity to its last account.
type Service struct {
	storage storage.Store
	clock   clock.Clock
	cfg     Config
}

// New creates a new credential Service
func New(storage storage.Store, clock clock.Clock, cfg Config) *Service {
	if cfg.MinPasswordLen == 0 {
		cfg.MinPasswordLen = DefaultConfig().MinPasswordLen
	}
	if cfg.MaxAccounts == 0 {
		cfg.MaxAccounts = DefaultConfig().MaxAccounts
	}
	return &Service{
		storage: storage,
		clock:   clock,
		cfg:     cfg,
	}
}

// Exists reports whether a record exists for the username
func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	return s.storage.AccountExists(ctx, username)
}

// Create validates and persists a new credential record. priorCount is the
// number of accounts the owning identity has already created; the quota
// check runs before any hashing or persistence.
func (s *Service) Create(ctx context.Context, username, password string, priorCount int) (*model.CredentialRecord, error) {
	password = strings.TrimSpace(password)
	if len(password) < s.cfg.MinPasswordLen {
		return nil, model.ErrInvalidPassword
	}
	if s.cfg.StrictUsernames && (len(username) < 3 || len(username) > 16) {
		return nil, model.ErrInvalidUsername
	}

	exists, err := s.storage.AccountExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrAlreadyExists
	}

	if priorCount+1 > s.cfg.MaxAccounts {
		return nil, model.ErrQuotaExceeded
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &model.CredentialRecord{
		Username:       username,
		PasswordHash:   string(hash),
		AccountCount:   priorCount + 1,
		PseudoIdentity: generateID("acct_"),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.storage.SaveAccount(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// Verify reports whether the password matches the stored hash.
// A missing account or a mismatch both return false without error;
// errors are reserved for storage failures.
func (s *Service) Verify(ctx context.Context, username, password string) (bool, error) {
	record, err := s.storage.GetAccount(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}

	password = strings.TrimSpace(password)
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

// Authenticate verifies the password and returns the record, distinguishing
// a missing account from a wrong password so the gate can report which.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.CredentialRecord, error) {
	record, err := s.storage.GetAccount(ctx, username)
	if err != nil {
		return nil, err
	}

	password = strings.TrimSpace(password)
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrWrongPassword
	}
	return record, nil
}

// ChangePassword rewrites the record's hash, preserving all other fields
func (s *Service) ChangePassword(ctx context.Context, username, newPassword string) error {
	newPassword = strings.TrimSpace(newPassword)
	if len(newPassword) < s.cfg.MinPasswordLen {
		return model.ErrInvalidPassword
	}

	record, err := s.storage.GetAccount(ctx, username)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	record.PasswordHash = string(hash)
	record.UpdatedAt = s.clock.Now()

	return s.storage.SaveAccount(ctx, record)
}

// Bind stores the by-identity copy of a record so the entity can reattach
// to its account on a later connect without re-entering the username
func (s *Service) Bind(ctx context.Context, id model.Identity, record *model.CredentialRecord) error {
	return s.storage.SaveBinding(ctx, id, record)
}

// Unbind removes the by-identity copy; no-op if absent
func (s *Service) Unbind(ctx context.Context, id model.Identity) error {
	return s.storage.DeleteBinding(ctx, id)
}

// FindByIdentity returns the record last bound to the identity
func (s *Service) FindByIdentity(ctx context.Context, id model.Identity) (*model.CredentialRecord, error) {
	return s.storage.GetBinding(ctx, id)
}

// generateID generates a random ID with a prefix
func generateID(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
