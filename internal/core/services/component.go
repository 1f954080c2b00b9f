package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driving"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
	"github.com/custodia-labs/kicad-lcsc/internal/metrics"
)

// Ensure ComponentService implements the interface.
var _ driving.ComponentService = (*ComponentService)(nil)

// modelPreference orders the formats a footprint references. KiCad shows
// one model per entry, so only the first available one is referenced.
var modelPreference = []domain.ModelFormat{domain.ModelFormatSTEP, domain.ModelFormatVRML}

// ComponentService is the search, convert and import pipeline.
type ComponentService struct {
	search    driving.SearchService
	converter driven.ArtifactConverter
	models    driving.ModelService
	library   driving.LibraryService
}

// NewComponentService creates the pipeline.
// The models parameter is optional (can be nil); imports then skip 3-D models.
func NewComponentService(
	search driving.SearchService,
	converter driven.ArtifactConverter,
	models driving.ModelService,
	library driving.LibraryService,
) *ComponentService {
	return &ComponentService{search: search, converter: converter, models: models, library: library}
}

// Convert searches and converts without touching any library. A
// structural error on one side is returned alongside usable artifacts.
func (s *ComponentService) Convert(
	ctx context.Context, id string, opts domain.SearchOptions,
) (*domain.ComponentRecord, domain.ConvertedArtifacts, error) {
	rec, err := s.search.Search(ctx, id, opts)
	if err != nil {
		return nil, domain.ConvertedArtifacts{}, err
	}

	layout := s.library.Layout()
	var formats []domain.ModelFormat
	for _, ref := range rec.Model3DRefs {
		formats = append(formats, ref.Format)
	}
	artifacts, err := s.convert(rec, domain.ConvertOptions{
		LibraryName: layout.Nickname,
		ModelPaths:  modelPaths(layout, rec.SourceID, formats),
	})
	return rec, artifacts, err
}

// Import runs the full pipeline into project. Conflicts are checked
// before any 3-D model is downloaded, and models are only resolved when
// the model kind will be written.
func (s *ComponentService) Import(
	ctx context.Context, project, id string, opts domain.ImportOptions,
) (*domain.ImportResult, error) {
	rec, err := s.search.Search(ctx, id, domain.SearchOptions{})
	if err != nil {
		return nil, err
	}
	if s.models == nil || len(rec.Model3DRefs) == 0 {
		opts.SkipModels = true
	}

	layout := s.library.Layout()
	var refFormats []domain.ModelFormat
	for _, ref := range rec.Model3DRefs {
		refFormats = append(refFormats, ref.Format)
	}

	// Names only; the final conversion below carries the model paths.
	draft, _ := s.converter.Convert(rec, domain.ConvertOptions{LibraryName: layout.Nickname})
	existing, err := s.library.Conflicts(project, rec, draft, opts)
	if err != nil {
		return nil, err
	}
	if blocking := opts.Blocking(existing); len(blocking) > 0 {
		logger.Debug("%s: %v already in the library, models not fetched", rec.SourceID, blocking)
		return s.library.Import(ctx, project, rec, draft, nil, opts)
	}

	var (
		assets   []domain.LocalAsset
		warnings []string
		formats  []domain.ModelFormat
	)
	switch {
	case opts.SkipModels:
	case containsKind(existing, domain.ArtifactModel) && opts.Keeps(domain.ArtifactModel):
		// The footprint keeps pointing at the model already on disk.
		formats = refFormats
	default:
		assets, warnings = s.models.Resolve(ctx, rec.SourceID, rec.Model3DRefs)
		for _, a := range assets {
			formats = append(formats, a.Format)
		}
	}

	artifacts, convErr := s.convert(rec, domain.ConvertOptions{
		LibraryName: layout.Nickname,
		ModelPaths:  modelPaths(layout, rec.SourceID, formats),
	})
	if artifacts.Symbol.Content == nil && artifacts.Footprint.Content == nil {
		return nil, fmt.Errorf("convert %s: %w", rec.SourceID, convErr)
	}

	result, err := s.library.Import(ctx, project, rec, artifacts, assets, opts)
	if result != nil {
		result.Warnings = append(result.Warnings, warnings...)
	}
	return result, err
}

func containsKind(kinds []domain.ArtifactKind, kind domain.ArtifactKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (s *ComponentService) convert(rec *domain.ComponentRecord, opts domain.ConvertOptions) (domain.ConvertedArtifacts, error) {
	artifacts, err := s.converter.Convert(rec, opts)

	status := "converted"
	switch {
	case err != nil && errors.Is(err, domain.ErrStructuralGeometry):
		status = "rejected"
	case err != nil:
		status = "error"
	case artifacts.Placeholder():
		status = "placeholder"
	}
	metrics.ConversionsTotal.WithLabelValues(status).Inc()
	metrics.ConversionWarningsTotal.Add(float64(len(artifacts.Warnings)))

	for _, w := range artifacts.Warnings {
		logger.Debug("convert %s: %s", rec.SourceID, w)
	}
	return artifacts, err
}

// modelPaths returns the footprint model reference for the preferred
// available format, or nil when there is none.
func modelPaths(layout domain.LibraryLayout, sourceID string, available []domain.ModelFormat) []string {
	for _, want := range modelPreference {
		for _, f := range available {
			if f == want {
				return []string{layout.ModelURI(domain.NormalizeIdentifier(sourceID) + f.Extension())}
			}
		}
	}
	return nil
}
