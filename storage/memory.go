package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory [Store] backed by a plain map. Blobs live only
// as long as the process; nothing ever touches the disk. It is the default
// backend for tests and for callers that manage persistence themselves.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]string
}

// NewMemoryStore constructs an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]string),
	}
}

// Get implements [Store].
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.blobs[key]
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

// Set implements [Store].
func (s *MemoryStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = value

	return nil
}

// Delete implements [Store].
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)

	return nil
}

// Close implements [Store]. It is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
