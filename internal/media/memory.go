package media

import (
	"context"
	"sync"
)

// InMemoryStore is a map-backed media store for tests and local development.
// It counts copies so tests can assert the at-most-once copy property.
type InMemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	copies  int
}

// NewInMemoryStore creates an empty in-memory media store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string][]byte)}
}

// PutObject stores content at key. Test seeding helper.
func (s *InMemoryStore) PutObject(key string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), content...)
}

// Exists implements Store.Exists.
func (s *InMemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Copy implements Store.Copy.
func (s *InMemoryStore) Copy(_ context.Context, src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.objects[src]
	if !ok {
		return ErrNotFound
	}
	s.objects[dst] = append([]byte(nil), content...)
	s.copies++
	return nil
}

// CopyCount returns how many copies have been performed.
func (s *InMemoryStore) CopyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copies
}
