package prefs

import (
	"context"
	"sync"
)

// MemoryStore keeps preferences in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]Prefs
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: make(map[string]Prefs)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (Prefs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.prefs[key]; ok {
		return p, nil
	}
	return Defaults(), nil
}

func (s *MemoryStore) Save(_ context.Context, key string, p Prefs) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[key] = p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prefs, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
