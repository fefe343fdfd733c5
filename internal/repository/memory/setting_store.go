package memory

import (
	"context"
	"sync"

	"github.com/examportal/examportal-backend/internal/service"
)

// SettingStore is an in-memory service.SettingStore.
type SettingStore struct {
	mu       sync.RWMutex
	settings map[string]string
}

// NewSettingStore creates an empty SettingStore.
func NewSettingStore() *SettingStore {
	return &SettingStore{settings: make(map[string]string)}
}

func (s *SettingStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	if !ok {
		return "", service.ErrNotFound
	}
	return v, nil
}

func (s *SettingStore) GetAll(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

func (s *SettingStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}
