package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Adapter wraps a KV backend with JSON (de)serialization and safe
// defaults. Reads never fail: a missing backend, a missing key, or a
// backend error all produce the caller's default. Writes are the
// opposite: a failed write surfaces to the caller, because silently
// dropping a save is worse than a visible error.
//
// A nil backend is allowed and turns every read into the default and
// every write into a no-op. This supports environments without any
// persistent storage.
type Adapter struct {
	kv     KV
	logger *slog.Logger
}

// NewAdapter creates a storage adapter over the given backend.
// backend may be nil.
func NewAdapter(kv KV, logger *slog.Logger) *Adapter {
	return &Adapter{kv: kv, logger: logger}
}

// Get reads a key and JSON-decodes it. When the stored value is not
// valid JSON, the raw string is returned unchanged; legacy writers
// stored plain strings alongside structured values. Missing keys and
// read errors return def.
func (a *Adapter) Get(ctx context.Context, key string, def any) any {
	raw, ok := a.raw(ctx, key)
	if !ok {
		return def
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	return decoded
}

// GetString reads a key as a plain string, stripping JSON string
// quoting when present. Missing keys and read errors return def.
func (a *Adapter) GetString(ctx context.Context, key string, def string) string {
	raw, ok := a.raw(ctx, key)
	if !ok {
		return def
	}

	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	return raw
}

// GetJSON decodes a stored value into dst. Unlike Get, decode failures
// are reported so callers migrating structured legacy blobs can
// distinguish "absent" from "corrupt".
// Returns false when the key is missing or the backend is unavailable.
func (a *Adapter) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok := a.raw(ctx, key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return true, nil
}

// Set serializes value to the backend. Plain strings are stored as-is;
// everything else is JSON-encoded. Write failures propagate.
func (a *Adapter) Set(ctx context.Context, key string, value any) error {
	if a.kv == nil {
		return nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", key, err)
		}
		raw = string(data)
	}

	if err := a.kv.Set(ctx, key, raw, 0); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Remove deletes keys. Removal of missing keys is not an error.
func (a *Adapter) Remove(ctx context.Context, keys ...string) error {
	if a.kv == nil || len(keys) == 0 {
		return nil
	}
	if err := a.kv.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to remove keys: %w", err)
	}
	return nil
}

// Exists reports whether any of the keys is present. Backend errors
// read as absent.
func (a *Adapter) Exists(ctx context.Context, keys ...string) bool {
	if a.kv == nil {
		return false
	}
	ok, err := a.kv.Exists(ctx, keys...)
	if err != nil {
		a.logger.Warn("Storage existence check failed", "keys", keys, "error", err)
		return false
	}
	return ok
}

func (a *Adapter) raw(ctx context.Context, key string) (string, bool) {
	if a.kv == nil {
		return "", false
	}
	raw, err := a.kv.Get(ctx, key)
	if err != nil {
		a.logger.Warn("Storage read failed", "key", key, "error", err)
		return "", false
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}
