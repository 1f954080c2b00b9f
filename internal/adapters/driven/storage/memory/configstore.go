package memory

import (
	"sort"
	"sync"

	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds settings in a map. It backs tests and runs where
// no config directory is wanted.
type ConfigStore struct {
	mu       sync.RWMutex
	values   map[string]any
	writeErr error
}

// NewConfigStore returns a store preloaded with the given key/value
// maps, later maps winning.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: map[string]any{}}
	for _, m := range seed {
		for k, v := range m {
			s.values[k] = v
		}
	}
	return s
}

// FailWrites makes every later Set and Delete return err without
// changing the store. A nil err restores normal behaviour.
func (s *ConfigStore) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// Get returns the value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.values[key] = value
	return nil
}

// Delete removes key.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	delete(s.values, key)
	return nil
}

// Keys returns the stored keys, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path is ":memory:".
func (s *ConfigStore) Path() string {
	return ":memory:"
}
