package statestore

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory returns an in-memory store, used in tests and throwaway sessions.
func NewMemory() Store {
	return &memoryStore{entries: map[string][]byte{}}
}

func (s *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (s *memoryStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(value))
	copy(copied, value)
	s.entries[key] = copied
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}
