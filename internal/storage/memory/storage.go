package memory

import (
	"context"
	"sync"

	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts map[string]*model.CredentialRecord
	bindings map[model.Identity]*model.CredentialRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts: make(map[string]*model.CredentialRecord),
		bindings: make(map[model.Identity]*model.CredentialRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, rec *model.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.accounts[rec.Username] = &cp
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, username string) (*model.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.accounts[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Storage) AccountExists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[username]
	return ok, nil
}

// Binding operations

func (s *Storage) SaveBinding(ctx context.Context, id model.Identity, rec *model.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.bindings[id] = &cp
	return nil
}

func (s *Storage) GetBinding(ctx context.Context, id model.Identity) (*model.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.bindings[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Storage) DeleteBinding(ctx context.Context, id model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, id)
	return nil
}
