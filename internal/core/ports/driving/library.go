package driving

import (
	"context"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// LibraryService integrates converted artifacts into project libraries.
type LibraryService interface {
	// Import writes the artifacts and registers the library in both
	// tables. Existing artifacts without overwrite permission yield a
	// conflict result with nothing written.
	Import(ctx context.Context, project string, record *domain.ComponentRecord,
		artifacts domain.ConvertedArtifacts, assets []domain.LocalAsset, opts domain.ImportOptions) (*domain.ImportResult, error)

	// Conflicts reports which artifact kinds already exist for record.
	Conflicts(project string, record *domain.ComponentRecord, artifacts domain.ConvertedArtifacts, opts domain.ImportOptions) ([]domain.ArtifactKind, error)

	// Info summarises the imported library of a project.
	Info(project string) (*domain.LibraryInfo, error)

	// Watch streams external changes to the project library.
	Watch(ctx context.Context, project string) (<-chan domain.LibraryEvent, error)

	// Layout returns the configured library layout.
	Layout() domain.LibraryLayout
}
