package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
)

// FileName is the settings file inside the config directory.
const FileName = "config.toml"

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a TOML file. Dotted keys map to
// [section] tables so the file stays hand-editable.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens the settings file in configDir, creating the
// directory when needed. An empty configDir means ~/.kicad-lcsc. A
// missing file is an empty store; a malformed one is an error.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		configDir = filepath.Join(home, ".kicad-lcsc")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(configDir, FileName)}
	values, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	s.values = values
	return s, nil
}

// Get returns the value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value and rewrites the file. The in-memory value is only
// updated once the write succeeds.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyValues()
	next[key] = value
	if err := writeFile(s.path, next); err != nil {
		return err
	}
	s.values = next
	return nil
}

// Delete removes key and rewrites the file.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	next := s.copyValues()
	delete(next, key)
	if err := writeFile(s.path, next); err != nil {
		return err
	}
	s.values = next
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

// Path returns the settings file path.
func (s *ConfigStore) Path() string {
	return s.path
}

func (s *ConfigStore) copyValues() map[string]any {
	out := make(map[string]any, len(s.values)+1)
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := map[string]any{}
	flatten(tree, "", out)
	return out, nil
}

// writeFile replaces path through a temp file in the same directory so
// a failed write never leaves a truncated config behind.
func writeFile(path string, values map[string]any) error {
	data, err := toml.Marshal(nest(values))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+FileName+".*")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// flatten turns {"a": {"b": 1}} into {"a.b": 1}.
func flatten(tree map[string]any, prefix string, out map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(sub, k, out)
			continue
		}
		out[k] = v
	}
}

// nest is the inverse of flatten.
func nest(flat map[string]any) map[string]any {
	tree := map[string]any{}
	for key, v := range flat {
		parts := strings.Split(key, ".")
		node := tree
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = v
	}
	return tree
}
