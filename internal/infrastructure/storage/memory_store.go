package storage

import (
	"context"
	"sync"

	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/store"
)

// MemoryBlobStore keeps blobs in process memory. State is lost on exit.
type MemoryBlobStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ ports.BlobStore = (*MemoryBlobStore)(nil)

// NewMemoryBlobStore returns an empty store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{data: map[string][]byte{}}
}

// Get returns a copy of the stored value.
func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value.
func (s *MemoryBlobStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Close is a no-op.
func (s *MemoryBlobStore) Close() error {
	return nil
}
