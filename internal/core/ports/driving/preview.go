package driving

import (
	"context"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// PreviewService renders previews asynchronously. Only the most recent
// selection is authoritative.
type PreviewService interface {
	// Select makes sourceID the current selection and dispatches renders
	// of its symbol and footprint without blocking. Returns the generation.
	Select(ctx context.Context, sourceID string, artifacts domain.ConvertedArtifacts) uint64

	// Current returns the entry of the current selection for kind.
	Current(kind domain.ArtifactKind) domain.CacheEntry

	// Get returns the cached entry for a key.
	Get(key domain.CacheKey) (domain.CacheEntry, bool)

	// Wait blocks until the entry for key leaves the pending state.
	Wait(ctx context.Context, key domain.CacheKey) (domain.CacheEntry, error)
}
