package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/spawnguard/spawnguard/internal/model"
)

type StorageSuite struct {
	suite.Suite
	dir     string
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.dir = s.T().TempDir()

	storage, err := New(s.dir)
	s.Require().NoError(err)

	s.storage = storage
	s.ctx = context.Background()
}

func (s *StorageSuite) record(username string) *model.CredentialRecord {
	return &model.CredentialRecord{
		Username:       username,
		PasswordHash:   "$2a$10$fakehash",
		AccountCount:   2,
		PseudoIdentity: "acct_xyz789",
		CreatedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func (s *StorageSuite) TestNewCreatesCollectionDirs() {
	for _, sub := range []string{"accounts", "bindings"} {
		info, err := os.Stat(filepath.Join(s.dir, sub))
		s.Require().NoError(err)
		s.True(info.IsDir())
	}
}

func (s *StorageSuite) TestAccountRoundTrip() {
	rec := s.record("alice")
	s.Require().NoError(s.storage.SaveAccount(s.ctx, rec))

	got, err := s.storage.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(rec, got)
}

func (s *StorageSuite) TestAccountFileOnDisk() {
	s.Require().NoError(s.storage.SaveAccount(s.ctx, s.record("alice")))

	_, err := os.Stat(filepath.Join(s.dir, "accounts", "alice.json"))
	s.NoError(err)
}

func (s *StorageSuite) TestGetAccountMissing() {
	_, err := s.storage.GetAccount(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestGetAccountCorruptFile() {
	path := filepath.Join(s.dir, "accounts", "alice.json")
	s.Require().NoError(os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := s.storage.GetAccount(s.ctx, "alice")
	s.ErrorIs(err, model.ErrStorageUnavailable)
}

func (s *StorageSuite) TestAccountExists() {
	exists, err := s.storage.AccountExists(s.ctx, "alice")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.storage.SaveAccount(s.ctx, s.record("alice")))

	exists, err = s.storage.AccountExists(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestUsernameWithPathCharactersIsEscaped() {
	rec := s.record("../evil")
	s.Require().NoError(s.storage.SaveAccount(s.ctx, rec))

	// The record must land inside the accounts dir, not outside it
	entries, err := os.ReadDir(filepath.Join(s.dir, "accounts"))
	s.Require().NoError(err)
	s.Len(entries, 1)

	got, err := s.storage.GetAccount(s.ctx, "../evil")
	s.Require().NoError(err)
	s.Equal("../evil", got.Username)
}

func (s *StorageSuite) TestBindingRoundTrip() {
	rec := s.record("alice")
	s.Require().NoError(s.storage.SaveBinding(s.ctx, "entity-1", rec))

	got, err := s.storage.GetBinding(s.ctx, "entity-1")
	s.Require().NoError(err)
	s.Equal(rec, got)
}

func (s *StorageSuite) TestDeleteBinding() {
	s.Require().NoError(s.storage.SaveBinding(s.ctx, "entity-1", s.record("alice")))
	s.Require().NoError(s.storage.DeleteBinding(s.ctx, "entity-1"))

	_, err := s.storage.GetBinding(s.ctx, "entity-1")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestDeleteBindingMissingIsNoop() {
	s.NoError(s.storage.DeleteBinding(s.ctx, "entity-1"))
}
