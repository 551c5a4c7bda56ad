package prefs

import (
	"context"
	"sync"
)

// MemoryStore keeps preferences in-process. Used in tests and when Redis is
// not configured.
type MemoryStore struct {
	mu       sync.RWMutex
	byDevice map[string]Preferences
}

// NewMemory creates a preference store holding only the fallback defaults.
func NewMemory() *MemoryStore {
	return &MemoryStore{byDevice: make(map[string]Preferences)}
}

func (s *MemoryStore) Defaults(_ context.Context, deviceID string) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return withFallbacks(s.byDevice[deviceID]), nil
}

func (s *MemoryStore) Save(_ context.Context, deviceID string, p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDevice[deviceID] = p
	return nil
}
