// Package cli provides the cobra command tree of kicad-lcsc.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driving"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services are the driving ports the commands call.
type Services struct {
	Search    driving.SearchService
	Component driving.ComponentService
	Library   driving.LibraryService
	Preview   driving.PreviewService
	Settings  driving.SettingsService

	// Scheduler runs background maintenance during mcp serve. Optional.
	Scheduler driving.Scheduler

	// Close releases resources held by the services.
	Close func() error
}

// Builder constructs the services from the configuration directory.
type Builder func(configDir string) (*Services, error)

var (
	searchService    driving.SearchService
	componentService driving.ComponentService
	libraryService   driving.LibraryService
	previewService   driving.PreviewService
	settingsService  driving.SettingsService
	scheduler        driving.Scheduler

	builder Builder
	closer  func() error
	built   bool
	verbose bool
	cfgDir  string
)

// errNotConfigured is returned when a command runs without its service.
var errNotConfigured = errors.New("service not configured")

var rootCmd = &cobra.Command{
	Use:   "kicad-lcsc",
	Short: "Import LCSC components into KiCad",
	Long: `kicad-lcsc looks up LCSC parts on EasyEDA and JLCPCB, converts their
symbol, footprint and 3-D model to KiCad formats and adds them to a
project library.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config-dir", "", "configuration directory (default ~/.kicad-lcsc)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices installs the services directly.
func SetServices(s *Services) {
	searchService = s.Search
	componentService = s.Component
	libraryService = s.Library
	previewService = s.Preview
	settingsService = s.Settings
	scheduler = s.Scheduler
	closer = s.Close
	built = true
}

// Execute runs the command tree. build is called once, after flags are
// parsed, for every command except version.
func Execute(ctx context.Context, build Builder) error {
	builder = build
	defer func() {
		if closer != nil {
			if err := closer(); err != nil {
				logger.Warn("closing services: %v", err)
			}
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if built || builder == nil || cmd == versionCmd {
		return nil
	}
	s, err := builder(cfgDir)
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}
