package storage

import (
	"context"
	"time"
)

// KV defines the interface for key-value persistence backends.
// Backends store raw strings; JSON handling lives in the Adapter.
type KV interface {
	// Ping tests the backend connection
	Ping(ctx context.Context) error

	// Set stores a key-value pair with optional expiration.
	// Zero expiration means the key never expires. Durable backends
	// may ignore expiration.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Get retrieves a value by key. Missing keys return ("", nil).
	Get(ctx context.Context, key string) (string, error)

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) error

	// Exists checks if any of the keys exist
	Exists(ctx context.Context, keys ...string) (bool, error)

	// Close closes the backend connection
	Close() error
}
