package storage

import (
	"sync"
)

// MemoryStore keeps the session identifier in memory only
type MemoryStore struct {
	mu sync.Mutex
	id string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveSessionID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

func (s *MemoryStore) LoadSessionID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		return "", ErrNotFound
	}
	return s.id, nil
}

func (s *MemoryStore) ClearSessionID() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	return nil
}

func (s *MemoryStore) Close() error { return nil }
