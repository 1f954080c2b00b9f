package driven

import (
	"context"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// LibraryStore is the on-disk KiCad library of one or more projects.
// Every write is atomic per file; WriteIndex is atomic across both tables.
type LibraryStore interface {
	// Lock acquires the exclusive writer lock of a project.
	// The returned function releases it.
	Lock(ctx context.Context, project string) (func(), error)

	// LoadIndex reads both tables, recovering an interrupted index commit first.
	// Missing tables load as empty.
	LoadIndex(project string) (*domain.LibraryIndex, error)

	// WriteIndex replaces both tables so that either both or neither change.
	WriteIndex(index *domain.LibraryIndex) error

	// SymbolExists reports whether the symbol library holds a symbol for
	// sourceID or one named name.
	SymbolExists(project string, layout domain.LibraryLayout, sourceID, name string) (bool, error)

	// FootprintExists reports whether the footprint file for name exists.
	FootprintExists(project string, layout domain.LibraryLayout, name string) (bool, error)

	// ModelExists reports whether a model file for sourceID exists.
	ModelExists(project string, layout domain.LibraryLayout, sourceID string) (bool, error)

	// WriteSymbol merges the symbol into the library file and returns its path.
	WriteSymbol(project string, layout domain.LibraryLayout, sourceID string, symbol domain.SymbolArtifact) (string, error)

	// WriteFootprint writes the footprint file and returns its path.
	WriteFootprint(project string, layout domain.LibraryLayout, footprint domain.FootprintArtifact) (string, error)

	// WriteModel writes the model file and returns its path.
	WriteModel(project string, layout domain.LibraryLayout, asset domain.LocalAsset) (string, error)

	// Info summarises the imported library of a project.
	Info(project string, layout domain.LibraryLayout) (*domain.LibraryInfo, error)
}

// LibraryWatcher streams external changes to a project library.
type LibraryWatcher interface {
	Watch(ctx context.Context, project string, layout domain.LibraryLayout) (<-chan domain.LibraryEvent, error)
}
