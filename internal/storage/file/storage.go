package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/storage"
)

const (
	accountsDir = "accounts"
	bindingsDir = "bindings"
)

// Storage is a file-backed implementation of the storage interface.
// Each record is one pretty-printed JSON file: accounts/<username>.json and
// bindings/<identity>.json under the data directory. Writes are synchronous;
// there is no write-ahead log or cross-file atomicity.
type Storage struct {
	mu  sync.RWMutex
	dir string
}

// New creates a file storage rooted at dir, creating the collection
// directories if needed
func New(dir string) (*Storage, error) {
	for _, sub := range []string{accountsDir, bindingsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o700); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
		}
	}
	return &Storage{dir: dir}, nil
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// accountPath returns the file path for a username key.
// Keys are path-escaped so arbitrary usernames cannot traverse directories.
func (s *Storage) accountPath(username string) string {
	return filepath.Join(s.dir, accountsDir, url.PathEscape(username)+".json")
}

func (s *Storage) bindingPath(id model.Identity) string {
	return filepath.Join(s.dir, bindingsDir, url.PathEscape(string(id))+".json")
}

func (s *Storage) write(path string, rec *model.CredentialRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Storage) read(path string) (*model.CredentialRecord, error) {
	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	var rec model.CredentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return &rec, nil
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, rec *model.CredentialRecord) error {
	return s.write(s.accountPath(rec.Username), rec)
}

func (s *Storage) GetAccount(ctx context.Context, username string) (*model.CredentialRecord, error) {
	return s.read(s.accountPath(username))
}

func (s *Storage) AccountExists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.accountPath(username))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return true, nil
}

// Binding operations

func (s *Storage) SaveBinding(ctx context.Context, id model.Identity, rec *model.CredentialRecord) error {
	return s.write(s.bindingPath(id), rec)
}

func (s *Storage) GetBinding(ctx context.Context, id model.Identity) (*model.CredentialRecord, error) {
	return s.read(s.bindingPath(id))
}

func (s *Storage) DeleteBinding(ctx context.Context, id model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.bindingPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}
