package redis

import (
	"fmt"

	"github.com/spawnguard/spawnguard/internal/model"
)

// Key prefix for all gate-related data
const keyPrefix = "sguard"

// accountKey returns the Redis key for the by-username credential record
func accountKey(username string) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, username)
}

// bindingKey returns the Redis key for the by-identity credential record
func bindingKey(id model.Identity) string {
	return fmt.Sprintf("%s:binding:%s", keyPrefix, id)
}
