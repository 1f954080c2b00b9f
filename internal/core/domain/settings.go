package domain

import "time"

// RemoteSettings holds throttling and timeout configuration shared by
// the remote source clients.
type RemoteSettings struct {
	// APITimeout bounds a single metadata request.
	APITimeout time.Duration

	// DownloadTimeout bounds a single file download. Longer than APITimeout.
	DownloadTimeout time.Duration

	// RequestsPerMinute is the per-source request ceiling.
	RequestsPerMinute int

	// MinSpacing is the minimum gap between two requests to one source.
	MinSpacing time.Duration
}

// CacheSettings controls the source response cache.
type CacheSettings struct {
	// Enabled turns the cache on.
	Enabled bool

	// ExpiryDays is how long a cached geometry response stays fresh.
	ExpiryDays int
}

// Expiry returns the freshness window.
func (c CacheSettings) Expiry() time.Duration {
	return time.Duration(c.ExpiryDays) * 24 * time.Hour
}

// PreviewSettings controls preview rendering.
type PreviewSettings struct {
	// MaxEntries bounds the preview cache by entry count.
	MaxEntries int

	// KiCadCLI is the kicad-cli executable.
	KiCadCLI string

	// Size is the edge of the square PNG in pixels.
	Size int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Library locates the imported library inside each project.
	Library LibraryLayout

	// Remote holds remote source settings.
	Remote RemoteSettings

	// Cache holds source cache settings.
	Cache CacheSettings

	// Preview holds preview settings.
	Preview PreviewSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Library: DefaultLibraryLayout(),
		Remote: RemoteSettings{
			APITimeout:        30 * time.Second,
			DownloadTimeout:   60 * time.Second,
			RequestsPerMinute: 30,
			MinSpacing:        2 * time.Second,
		},
		Cache: CacheSettings{
			Enabled:    true,
			ExpiryDays: 7,
		},
		Preview: PreviewSettings{
			MaxEntries: 32,
			KiCadCLI:   "kicad-cli",
			Size:       400,
		},
	}
}
