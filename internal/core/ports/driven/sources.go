package driven

import (
	"context"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// GeometrySource is the remote catalog that supplies identity metadata
// and raw CAD geometry (EasyEDA).
type GeometrySource interface {
	// Source returns the tag of the catalog.
	Source() domain.SourceTag

	// Fetch retrieves the metadata half of a record.
	// Never returns an error: failures are carried in the result.
	Fetch(ctx context.Context, id string) domain.SourceResult

	// FetchGeometry retrieves raw geometry and 3-D model references.
	// Found with nil Geometry means the part has no CAD data.
	FetchGeometry(ctx context.Context, id string) domain.GeometryResult
}

// KeywordSource is a remote catalog with free-text search (EasyEDA).
type KeywordSource interface {
	// Search returns one page of hits for keyword. No hits is not an
	// error.
	Search(ctx context.Context, keyword string, page int) ([]domain.SearchHit, error)
}

// PricingSource is the remote catalog that supplies stock, pricing and
// classification (JLCPCB).
type PricingSource interface {
	// Source returns the tag of the catalog.
	Source() domain.SourceTag

	// Fetch retrieves the pricing half of a record.
	// Never returns an error: failures are carried in the result.
	Fetch(ctx context.Context, id string) domain.SourceResult
}

// AssetFetcher downloads binary assets such as 3-D models through the
// download rate limiter and timeout.
type AssetFetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}
