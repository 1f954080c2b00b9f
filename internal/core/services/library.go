package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driving"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
	"github.com/custodia-labs/kicad-lcsc/internal/metrics"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

// LibraryService integrates converted artifacts into a project library.
type LibraryService struct {
	store   driven.LibraryStore
	watcher driven.LibraryWatcher
	layout  domain.LibraryLayout
}

// NewLibraryService creates a new library service.
// The watcher parameter is optional (can be nil).
func NewLibraryService(store driven.LibraryStore, watcher driven.LibraryWatcher, layout domain.LibraryLayout) *LibraryService {
	return &LibraryService{store: store, watcher: watcher, layout: layout}
}

// Layout returns the configured library layout.
func (s *LibraryService) Layout() domain.LibraryLayout {
	return s.layout
}

// Conflicts reports which requested kinds already exist for the record.
// The model kind is checked unless opts.SkipModels is set.
func (s *LibraryService) Conflicts(
	project string, record *domain.ComponentRecord, artifacts domain.ConvertedArtifacts, opts domain.ImportOptions,
) ([]domain.ArtifactKind, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", domain.ErrInvalidInput)
	}
	return s.existing(project, record.SourceID, artifacts, !opts.SkipModels)
}

// Import writes the artifacts and registers the library in both tables.
func (s *LibraryService) Import(
	ctx context.Context, project string, record *domain.ComponentRecord,
	artifacts domain.ConvertedArtifacts, assets []domain.LocalAsset, opts domain.ImportOptions,
) (*domain.ImportResult, error) {
	logger.Section("Library Import")

	if record == nil {
		return nil, fmt.Errorf("%w: nil record", domain.ErrInvalidInput)
	}
	if project == "" {
		return nil, fmt.Errorf("%w: empty project directory", domain.ErrInvalidInput)
	}
	if opts.SkipModels {
		assets = nil
	}

	unlock, err := s.store.Lock(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("lock project library: %w", err)
	}
	defer unlock()

	index, err := s.store.LoadIndex(project)
	if err != nil {
		return nil, fmt.Errorf("load library index: %w", err)
	}

	result := &domain.ImportResult{
		SourceID:    record.SourceID,
		LibraryName: s.layout.Nickname,
		Written:     make(map[domain.ArtifactKind]string),
		Failed:      make(map[domain.ArtifactKind]string),
		Warnings:    append([]string(nil), artifacts.Warnings...),
	}

	withModels := !opts.SkipModels && (len(assets) > 0 || len(record.Model3DRefs) > 0)
	existing, err := s.existing(project, record.SourceID, artifacts, withModels)
	if err != nil {
		return nil, err
	}
	result.Conflicts = opts.Blocking(existing)
	if len(result.Conflicts) > 0 {
		logger.Debug("%s: conflict on %v, nothing written", record.SourceID, result.Conflicts)
		result.Status = domain.ImportStatusConflict
		metrics.ImportsTotal.WithLabelValues(string(result.Status)).Inc()
		return result, nil
	}

	kept := make(map[domain.ArtifactKind]bool)
	for _, kind := range existing {
		if opts.Keeps(kind) {
			kept[kind] = true
			result.Kept = append(result.Kept, kind)
		}
	}
	if len(result.Kept) > 0 {
		logger.Debug("%s: keeping existing %v", record.SourceID, result.Kept)
	}

	if !kept[domain.ArtifactSymbol] {
		s.writeSymbol(project, record.SourceID, artifacts, result)
	}
	if !kept[domain.ArtifactFootprint] {
		s.writeFootprint(project, artifacts, result)
	}
	if !kept[domain.ArtifactModel] {
		s.writeModels(project, assets, result)
	}

	// Tables are only touched once a library file exists.
	_, symOK := result.Written[domain.ArtifactSymbol]
	_, fpOK := result.Written[domain.ArtifactFootprint]
	if symOK || fpOK {
		symChanged := index.Symbols.Upsert(s.layout.SymbolEntry())
		fpChanged := index.Footprints.Upsert(s.layout.FootprintEntry())
		if symChanged || fpChanged {
			if err := s.store.WriteIndex(index); err != nil {
				metrics.ImportsTotal.WithLabelValues("index_failure").Inc()
				return result, fmt.Errorf("update library index: %w", err)
			}
			result.IndexUpdated = true
		}
	}

	result.Status = domain.ImportStatusImported
	if len(result.Failed) > 0 {
		result.Status = domain.ImportStatusPartial
	}
	metrics.ImportsTotal.WithLabelValues(string(result.Status)).Inc()
	logger.Debug("%s: %s (written %d, failed %d)", record.SourceID, result.Status, len(result.Written), len(result.Failed))
	return result, nil
}

// Info summarises the imported library of a project.
func (s *LibraryService) Info(project string) (*domain.LibraryInfo, error) {
	return s.store.Info(project, s.layout)
}

// Watch streams external changes to the project library.
func (s *LibraryService) Watch(ctx context.Context, project string) (<-chan domain.LibraryEvent, error) {
	if s.watcher == nil {
		return nil, errors.New("library watching is not available")
	}
	return s.watcher.Watch(ctx, project, s.layout)
}

// existing lists the kinds that already have an artifact for sourceID.
func (s *LibraryService) existing(
	project, sourceID string, artifacts domain.ConvertedArtifacts, withModels bool,
) ([]domain.ArtifactKind, error) {
	var kinds []domain.ArtifactKind

	if artifacts.Symbol.Content != nil {
		ok, err := s.store.SymbolExists(project, s.layout, sourceID, artifacts.Symbol.Name)
		if err != nil {
			return nil, fmt.Errorf("check symbol: %w", err)
		}
		if ok {
			kinds = append(kinds, domain.ArtifactSymbol)
		}
	}
	if artifacts.Footprint.Content != nil {
		ok, err := s.store.FootprintExists(project, s.layout, artifacts.Footprint.Name)
		if err != nil {
			return nil, fmt.Errorf("check footprint: %w", err)
		}
		if ok {
			kinds = append(kinds, domain.ArtifactFootprint)
		}
	}
	if withModels {
		ok, err := s.store.ModelExists(project, s.layout, sourceID)
		if err != nil {
			return nil, fmt.Errorf("check model: %w", err)
		}
		if ok {
			kinds = append(kinds, domain.ArtifactModel)
		}
	}
	return kinds, nil
}

func (s *LibraryService) writeSymbol(project, sourceID string, a domain.ConvertedArtifacts, result *domain.ImportResult) {
	if err := a.Rejected[domain.ArtifactSymbol]; err != nil {
		result.Failed[domain.ArtifactSymbol] = err.Error()
		return
	}
	if a.Symbol.Content == nil {
		return
	}
	path, err := s.store.WriteSymbol(project, s.layout, sourceID, a.Symbol)
	if err != nil {
		logger.Warn("write symbol %s: %v", a.Symbol.Name, err)
		result.Failed[domain.ArtifactSymbol] = err.Error()
		return
	}
	result.Written[domain.ArtifactSymbol] = path
}

func (s *LibraryService) writeFootprint(project string, a domain.ConvertedArtifacts, result *domain.ImportResult) {
	if err := a.Rejected[domain.ArtifactFootprint]; err != nil {
		result.Failed[domain.ArtifactFootprint] = err.Error()
		return
	}
	if a.Footprint.Content == nil {
		return
	}
	path, err := s.store.WriteFootprint(project, s.layout, a.Footprint)
	if err != nil {
		logger.Warn("write footprint %s: %v", a.Footprint.Name, err)
		result.Failed[domain.ArtifactFootprint] = err.Error()
		return
	}
	result.Written[domain.ArtifactFootprint] = path
}

// writeModels writes every asset. A model failure is a warning like any
// other asset failure, never a failed kind.
func (s *LibraryService) writeModels(project string, assets []domain.LocalAsset, result *domain.ImportResult) {
	var paths []string
	for _, asset := range assets {
		path, err := s.store.WriteModel(project, s.layout, asset)
		if err != nil {
			result.Warnings = append(result.Warnings, (&domain.AssetError{URL: asset.SourceURL, Err: err}).Error())
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) > 0 {
		result.Written[domain.ArtifactModel] = strings.Join(paths, ", ")
	}
}
