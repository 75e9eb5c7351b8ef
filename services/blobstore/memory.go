package blobsvc

import (
	"context"
	"path"
	"sync"

	"github.com/google/uuid"

	"github.com/colegia/backend/core"
)

// MemoryStorage keeps blobs in a map; tests and local development use it.
type MemoryStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ core.BlobStorage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

func (s *MemoryStorage) Store(ctx context.Context, data []byte, folderHint, name string) (string, error) {
	key := path.Join(folderHint, uuid.New().String()+"-"+name)
	s.mu.Lock()
	s.blobs[key] = data
	s.mu.Unlock()
	return "memory://" + key, nil
}

// Get returns a stored blob; tests use it to assert uploads.
func (s *MemoryStorage) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	return data, ok
}
