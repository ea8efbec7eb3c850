package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spawnguard/spawnguard/internal/model"
	"github.com/spawnguard/spawnguard/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Records are stored as JSON values; credential records never expire.
type Storage struct {
	client *redis.Client
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}

	return &Storage{client: client}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client) *Storage {
	return &Storage{client: client}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) set(ctx context.Context, key string, rec *model.CredentialRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Storage) get(ctx context.Context, key string) (*model.CredentialRecord, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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
	return s.set(ctx, accountKey(rec.Username), rec)
}

func (s *Storage) GetAccount(ctx context.Context, username string) (*model.CredentialRecord, error) {
	return s.get(ctx, accountKey(username))
}

func (s *Storage) AccountExists(ctx context.Context, username string) (bool, error) {
	n, err := s.client.Exists(ctx, accountKey(username)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return n > 0, nil
}

// Binding operations

func (s *Storage) SaveBinding(ctx context.Context, id model.Identity, rec *model.CredentialRecord) error {
	return s.set(ctx, bindingKey(id), rec)
}

func (s *Storage) GetBinding(ctx context.Context, id model.Identity) (*model.CredentialRecord, error) {
	return s.get(ctx, bindingKey(id))
}

func (s *Storage) DeleteBinding(ctx context.Context, id model.Identity) error {
	if err := s.client.Del(ctx, bindingKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}
