package driving

import (
	"context"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// SearchService aggregates both remote catalogs into one record.
type SearchService interface {
	// Search returns the merged record for id, or domain.ErrNotFound when
	// neither source knows it. Partial data is not an error.
	Search(ctx context.Context, id string, opts domain.SearchOptions) (*domain.ComponentRecord, error)

	// Find runs a free-text search and returns one page of hits. An empty
	// keyword is domain.ErrInvalidInput.
	Find(ctx context.Context, query domain.KeywordQuery) ([]domain.SearchHit, error)
}

// ComponentService runs the search, convert and import pipeline.
type ComponentService interface {
	// Convert searches and converts without touching any library.
	Convert(ctx context.Context, id string, opts domain.SearchOptions) (*domain.ComponentRecord, domain.ConvertedArtifacts, error)

	// Import searches, converts, resolves 3-D models and integrates the
	// result into the project library.
	Import(ctx context.Context, project, id string, opts domain.ImportOptions) (*domain.ImportResult, error)
}

// ModelService resolves 3-D model references into validated local assets.
type ModelService interface {
	// Resolve downloads every ref. Failures are returned as warnings and
	// never abort the caller.
	Resolve(ctx context.Context, sourceID string, refs []domain.ModelRef) ([]domain.LocalAsset, []string)
}
