package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryKV is an in-process KV backend. It backs tests and
// environments without durable storage, mirroring the behavior the
// other backends provide over the wire.
type MemoryKV struct {
	mu      sync.RWMutex
	values  map[string]string
	expires map[string]time.Time
}

var _ KV = (*MemoryKV)(nil)

// NewMemoryKV creates an empty in-memory backend
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

func (m *MemoryKV) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	if expiration > 0 {
		m.expires[key] = time.Now().Add(expiration)
	} else {
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if deadline, ok := m.expires[key]; ok && time.Now().After(deadline) {
		return "", nil
	}
	return m.values[key], nil
}

func (m *MemoryKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryKV) Exists(ctx context.Context, keys ...string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	for _, key := range keys {
		if _, ok := m.values[key]; !ok {
			continue
		}
		if deadline, ok := m.expires[key]; ok && now.After(deadline) {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (m *MemoryKV) Close() error {
	return nil
}

// Len returns the number of stored keys. Test helper.
func (m *MemoryKV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
