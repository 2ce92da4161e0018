package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/store"
)

// RedisBlobStore keeps each blob as a plain string key.
type RedisBlobStore struct {
	client *redis.Client
	prefix string
}

var _ ports.BlobStore = (*RedisBlobStore)(nil)

// NewRedisBlobStore wraps an existing client. Keys are namespaced by prefix.
func NewRedisBlobStore(client *redis.Client, prefix string) *RedisBlobStore {
	return &RedisBlobStore{client: client, prefix: prefix}
}

// OpenRedis accepts either a redis:// URL or a bare host:port address.
func OpenRedis(ctx context.Context, redisURL, prefix string) (*RedisBlobStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisBlobStore(client, prefix), nil
}

func (s *RedisBlobStore) key(k string) string {
	return s.prefix + k
}

// Get returns the value stored under key or store.ErrNotFound.
func (s *RedisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Put stores value without expiry.
func (s *RedisBlobStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close shuts the client down.
func (s *RedisBlobStore) Close() error {
	return s.client.Close()
}
