package cache

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no entry exists for a key.
	ErrNotFound = errors.New("cache entry not found")
	// ErrEmptyPayload rejects zero-length results; they are never persisted.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrInvalidKey rejects keys that are not hex sha256 digests.
	ErrInvalidKey = errors.New("invalid cache key")
)

// Store is a durable key/value backend for cache entries. Implementations
// must be safe for concurrent use, must never expose a partially written
// payload, and must not overwrite an existing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys, oldest first.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}
