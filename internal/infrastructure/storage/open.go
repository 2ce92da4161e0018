package storage

import (
	"context"
	"fmt"

	"NewsAlerter/internal/config"
	"NewsAlerter/internal/ports"
)

// Open builds the blob store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (ports.BlobStore, error) {
	switch cfg.Backend {
	case "", config.BackendFile:
		return NewFileBlobStore(cfg.Path)
	case config.BackendMemory:
		return NewMemoryBlobStore(), nil
	case config.BackendPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires storage.dsn")
		}
		return OpenPostgres(ctx, cfg.DSN, cfg.Table)
	case config.BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis backend requires storage.redisUrl")
		}
		return OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
