// Package store defines the key-value contract the game state lives behind.
// Any durable store with string and hash-map value types can back it; the
// production implementation is Redis (internal/redis).
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("key not found")

// Store is the six-operation contract required by the game core. The store is
// assumed linearizable per key with no cross-key atomicity; callers that
// read-modify-write do so without locking (last-write-wins).
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	HashGetAll(ctx context.Context, key string) (map[string]string, error)
	HashSet(ctx context.Context, key, field, value string) error
	HashDelete(ctx context.Context, key string, fields ...string) error
}
