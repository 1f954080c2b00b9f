package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyLibraryPath         = "library.path"
	KeyLibrarySymbolDir    = "library.symbol_dir"
	KeyLibrarySymbolFile   = "library.symbol_file"
	KeyLibraryFootprintDir = "library.footprint_dir"
	KeyLibraryModelsDir    = "library.models_dir"
	KeyLibraryNickname     = "library.nickname"
	KeyAPITimeout          = "remote.api_timeout"
	KeyDownloadTimeout     = "remote.download_timeout"
	KeyRequestsPerMinute   = "remote.requests_per_minute"
	KeyMinSpacing          = "remote.min_spacing_ms"
	KeyCacheEnabled        = "cache.enabled"
	KeyCacheExpiryDays     = "cache.expiry_days"
	KeyPreviewMaxEntries   = "preview.max_entries"
	KeyPreviewKiCadCLI     = "preview.kicad_cli"
	KeyPreviewSize         = "preview.size"
)

type valueKind int

const (
	kindString valueKind = iota
	kindPositiveInt
	kindBool
)

// setting binds a key to its field in AppSettings.
type setting struct {
	kind valueKind
	get  func(s *domain.AppSettings) any
	set  func(s *domain.AppSettings, v any)
}

var settingsTable = map[string]setting{
	KeyLibraryPath: {kindString,
		func(s *domain.AppSettings) any { return s.Library.Root },
		func(s *domain.AppSettings, v any) { s.Library.Root = v.(string) }},
	KeyLibrarySymbolDir: {kindString,
		func(s *domain.AppSettings) any { return s.Library.SymbolDir },
		func(s *domain.AppSettings, v any) { s.Library.SymbolDir = v.(string) }},
	KeyLibrarySymbolFile: {kindString,
		func(s *domain.AppSettings) any { return s.Library.SymbolFile },
		func(s *domain.AppSettings, v any) { s.Library.SymbolFile = v.(string) }},
	KeyLibraryFootprintDir: {kindString,
		func(s *domain.AppSettings) any { return s.Library.FootprintDir },
		func(s *domain.AppSettings, v any) { s.Library.FootprintDir = v.(string) }},
	KeyLibraryModelsDir: {kindString,
		func(s *domain.AppSettings) any { return s.Library.ModelsDir },
		func(s *domain.AppSettings, v any) { s.Library.ModelsDir = v.(string) }},
	KeyLibraryNickname: {kindString,
		func(s *domain.AppSettings) any { return s.Library.Nickname },
		func(s *domain.AppSettings, v any) { s.Library.Nickname = v.(string) }},
	KeyAPITimeout: {kindPositiveInt,
		func(s *domain.AppSettings) any { return int(s.Remote.APITimeout / time.Second) },
		func(s *domain.AppSettings, v any) { s.Remote.APITimeout = time.Duration(v.(int)) * time.Second }},
	KeyDownloadTimeout: {kindPositiveInt,
		func(s *domain.AppSettings) any { return int(s.Remote.DownloadTimeout / time.Second) },
		func(s *domain.AppSettings, v any) { s.Remote.DownloadTimeout = time.Duration(v.(int)) * time.Second }},
	KeyRequestsPerMinute: {kindPositiveInt,
		func(s *domain.AppSettings) any { return s.Remote.RequestsPerMinute },
		func(s *domain.AppSettings, v any) { s.Remote.RequestsPerMinute = v.(int) }},
	KeyMinSpacing: {kindPositiveInt,
		func(s *domain.AppSettings) any { return int(s.Remote.MinSpacing / time.Millisecond) },
		func(s *domain.AppSettings, v any) { s.Remote.MinSpacing = time.Duration(v.(int)) * time.Millisecond }},
	KeyCacheEnabled: {kindBool,
		func(s *domain.AppSettings) any { return s.Cache.Enabled },
		func(s *domain.AppSettings, v any) { s.Cache.Enabled = v.(bool) }},
	KeyCacheExpiryDays: {kindPositiveInt,
		func(s *domain.AppSettings) any { return s.Cache.ExpiryDays },
		func(s *domain.AppSettings, v any) { s.Cache.ExpiryDays = v.(int) }},
	KeyPreviewMaxEntries: {kindPositiveInt,
		func(s *domain.AppSettings) any { return s.Preview.MaxEntries },
		func(s *domain.AppSettings, v any) { s.Preview.MaxEntries = v.(int) }},
	KeyPreviewKiCadCLI: {kindString,
		func(s *domain.AppSettings) any { return s.Preview.KiCadCLI },
		func(s *domain.AppSettings, v any) { s.Preview.KiCadCLI = v.(string) }},
	KeyPreviewSize: {kindPositiveInt,
		func(s *domain.AppSettings) any { return s.Preview.Size },
		func(s *domain.AppSettings, v any) { s.Preview.Size = v.(int) }},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings. Missing or invalid stored
// values fall back to the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	for key, st := range settingsTable {
		raw, ok := s.configStore.Get(key)
		if !ok {
			continue
		}
		v, err := coerce(st.kind, raw)
		if err != nil {
			continue
		}
		st.set(&settings, v)
	}
	return &settings, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Keys lists every recognised configuration key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingsTable))
	for k := range settingsTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value returns the effective value of key as text.
func (s *SettingsService) Value(key string) (string, error) {
	st, ok := settingsTable[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", err
	}
	return fmt.Sprint(st.get(settings)), nil
}

// SetValue parses raw for key, validates it and persists it.
func (s *SettingsService) SetValue(key, raw string) error {
	st, ok := settingsTable[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	v, err := coerce(st.kind, raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, v); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Reset removes the stored value for key so its default applies again.
func (s *SettingsService) Reset(key string) error {
	if _, ok := settingsTable[key]; !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Delete(key); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}

// Path reports where settings are persisted.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// List returns the effective value of every key.
func (s *SettingsService) List() (map[string]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settingsTable))
	for key, st := range settingsTable {
		out[key] = fmt.Sprint(st.get(settings))
	}
	return out, nil
}

// coerce converts a stored or user-supplied value to the kind of a key.
// Stored TOML values arrive as int64 or bool, CLI values as strings.
func coerce(kind valueKind, raw any) (any, error) {
	switch kind {
	case kindString:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", raw)
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return nil, fmt.Errorf("value must not be empty")
		}
		return str, nil
	case kindPositiveInt:
		var n int
		switch v := raw.(type) {
		case int:
			n = v
		case int64:
			n = int(v)
		case float64:
			n = int(v)
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("expected an integer: %q", v)
			}
			n = parsed
		default:
			return nil, fmt.Errorf("expected an integer, got %T", raw)
		}
		if n <= 0 {
			return nil, fmt.Errorf("must be positive, got %d", n)
		}
		return n, nil
	case kindBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("expected true or false: %q", v)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("expected a boolean, got %T", raw)
		}
	}
	return nil, fmt.Errorf("unsupported kind %d", kind)
}
