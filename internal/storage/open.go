package storage

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/adventure-client/internal/config"
)

// Open creates the KV backend named by the configuration
func Open(cfg *config.Config, logger *slog.Logger) (KV, error) {
	switch cfg.StorageBackend {
	case "memory":
		return NewMemoryKV(), nil
	case "sqlite":
		return NewSQLiteKV(cfg.SQLitePath, logger)
	case "redis":
		return NewRedisKV(cfg.RedisURL, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.StorageBackend)
	}
}
