package driven

import (
	"context"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// Renderer produces a PNG preview of one artifact. It is an external
// process and may be slow; callers run it asynchronously.
type Renderer interface {
	Render(ctx context.Context, kind domain.ArtifactKind, artifacts domain.ConvertedArtifacts) ([]byte, error)
}
