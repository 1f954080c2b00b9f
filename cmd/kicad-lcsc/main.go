// Command kicad-lcsc imports LCSC components into KiCad project libraries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/custodia-labs/kicad-lcsc/internal/adapters/driven/config/file"
	"github.com/custodia-labs/kicad-lcsc/internal/adapters/driven/library/kicad"
	"github.com/custodia-labs/kicad-lcsc/internal/adapters/driven/renderer/kicadcli"
	"github.com/custodia-labs/kicad-lcsc/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/kicad-lcsc/internal/adapters/driving/cli"
	"github.com/custodia-labs/kicad-lcsc/internal/connectors/easyeda"
	"github.com/custodia-labs/kicad-lcsc/internal/connectors/jlcpcb"
	"github.com/custodia-labs/kicad-lcsc/internal/connectors/remote"
	kicadconv "github.com/custodia-labs/kicad-lcsc/internal/converters/kicad"
	"github.com/custodia-labs/kicad-lcsc/internal/converters/vrml"
	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/services"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

// version is set via -ldflags at build time.
var version = "dev"

func main() {
	cli.SetVersion(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, build)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// build wires the adapters into the services.
func build(configDir string) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	clock := remote.SystemClock{}
	limiters := remote.NewRegistry(settings.Remote.RequestsPerMinute, settings.Remote.MinSpacing, clock)
	apiPolicy := remote.NewRetryPolicy(settings.Remote.APITimeout, clock)
	downloadPolicy := remote.NewRetryPolicy(settings.Remote.DownloadTimeout, clock)

	geometry := easyeda.NewClient(easyeda.Config{
		Limiter: limiters.For(domain.SourceEasyEDA.String()),
		Policy:  apiPolicy,
		Session: remote.NewSession(nil, easyeda.DefaultHeaders()),
	})
	pricing := jlcpcb.NewClient(jlcpcb.Config{
		Limiter: limiters.For(domain.SourceJLCPCB.String()),
		Policy:  apiPolicy,
		Session: remote.NewSession(nil, jlcpcb.DefaultHeaders()),
	})
	downloader := remote.NewDownloader(limiters.For(remote.DownloadSource), downloadPolicy, nil)

	search := services.NewSearchService(geometry, pricing)
	search.SetKeywordSource(geometry)

	var (
		closers   []func() error
		scheduler *services.Scheduler
	)
	if settings.Cache.Enabled {
		cacheDir := ""
		if configDir != "" {
			cacheDir = filepath.Join(configDir, "cache")
		}
		cache, err := sqlite.NewStore(cacheDir)
		if err != nil {
			logger.Warn("source cache disabled: %v", err)
		} else {
			scheduler = services.NewScheduler(cache, settings.Cache.Expiry(), services.DefaultPurgeInterval)
			purgeCache(scheduler)
			search.SetSourceCache(cache, settings.Cache.Expiry(), time.Now)
			closers = append(closers, cache.Close)
		}
	}

	library := services.NewLibraryService(kicad.NewStore(), kicad.NewWatcher(), settings.Library)
	models := services.NewModelService(downloader, vrml.NewTranscoder())
	component := services.NewComponentService(search, kicadconv.NewConverter(), models, library)

	renderer := kicadcli.NewRenderer(settings.Preview.KiCadCLI, settings.Preview.Size)
	if !renderer.Available() {
		logger.Debug("%s not found; previews will fail", settings.Preview.KiCadCLI)
	}
	preview := services.NewPreviewService(renderer, settings.Preview.MaxEntries)

	svc := &cli.Services{
		Search:    search,
		Component: component,
		Library:   library,
		Preview:   preview,
		Settings:  settingsService,
		Close: func() error {
			var first error
			for _, c := range closers {
				if err := c(); err != nil && first == nil {
					first = err
				}
			}
			return first
		},
	}
	if scheduler != nil {
		svc.Scheduler = scheduler
	}
	return svc, nil
}

// purgeCache drops entries that can no longer be served.
func purgeCache(scheduler *services.Scheduler) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := scheduler.Purge(ctx)
	if err != nil {
		logger.Warn("purging source cache: %v", err)
		return
	}
	if n > 0 {
		logger.Debug("purged %d stale cache entries", n)
	}
}
