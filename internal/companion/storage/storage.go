// Package storage holds the key/value backends the conversation store and the
// access gate persist into. Every backend stores opaque byte values under
// string keys; callers own the encoding.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("key not found")

// Backend names accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
	KindMemory = "memory"
)

// Backend is a durable (or session-scoped) key/value store.
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	// A positive ttl makes the entry expire; backends that cannot expire
	// entries ignore it.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Kind          string // "file", "sqlite", "redis" or "memory"
	Dir           string // file backend directory
	SQLitePath    string // sqlite database file
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string // prepended to every redis key
}

// Open creates the backend described by opts.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Kind {
	case KindFile, "":
		return NewFile(opts.Dir)
	case KindSQLite:
		return NewSQLite(ctx, opts.SQLitePath)
	case KindRedis:
		return NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (expected file, sqlite, redis or memory)", opts.Kind)
	}
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("storage key cannot be empty")
	}
	return nil
}
