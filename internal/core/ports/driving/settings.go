package driving

import "github.com/custodia-labs/kicad-lcsc/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Keys lists every recognised configuration key.
	Keys() []string

	// Value returns the effective value of key as text.
	Value(key string) (string, error)

	// SetValue parses raw for key, validates it and persists it.
	SetValue(key, raw string) error

	// Reset drops the stored value of key, restoring its default.
	Reset(key string) error

	// Path names the settings file.
	Path() string

	// List returns the effective value of every key.
	List() (map[string]string, error)
}
