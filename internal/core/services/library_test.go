package services

import (
	"context"
	"errors"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// --- Mock implementations ---

// fakeLibrary is an in-memory LibraryStore.
type fakeLibrary struct {
	mu           sync.Mutex
	symbols      map[string]string // sourceID -> symbol name
	symbolWrites int
	footprints   map[string][]byte
	models       map[string][]byte
	index        domain.LibraryIndex
	indexWrites  int
	writeIndexFn func(*domain.LibraryIndex) error
	footprintErr error
	lockErr      error
	locked       bool
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		symbols:    make(map[string]string),
		footprints: make(map[string][]byte),
		models:     make(map[string][]byte),
		index: domain.LibraryIndex{
			Symbols:    domain.LibTable{Kind: domain.TableSymbol, Version: 7},
			Footprints: domain.LibTable{Kind: domain.TableFootprint, Version: 7},
		},
	}
}

func (f *fakeLibrary) Lock(_ context.Context, _ string) (func(), error) {
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	f.mu.Lock()
	f.locked = true
	return func() {
		f.locked = false
		f.mu.Unlock()
	}, nil
}

func (f *fakeLibrary) LoadIndex(project string) (*domain.LibraryIndex, error) {
	idx := domain.LibraryIndex{Project: project, Symbols: f.index.Symbols.Clone(), Footprints: f.index.Footprints.Clone()}
	return &idx, nil
}

func (f *fakeLibrary) WriteIndex(index *domain.LibraryIndex) error {
	if f.writeIndexFn != nil {
		if err := f.writeIndexFn(index); err != nil {
			return err
		}
	}
	f.indexWrites++
	f.index = domain.LibraryIndex{Project: index.Project, Symbols: index.Symbols.Clone(), Footprints: index.Footprints.Clone()}
	return nil
}

func (f *fakeLibrary) SymbolExists(_ string, _ domain.LibraryLayout, sourceID, name string) (bool, error) {
	for id, n := range f.symbols {
		if id == sourceID || n == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLibrary) FootprintExists(_ string, _ domain.LibraryLayout, name string) (bool, error) {
	_, ok := f.footprints[name]
	return ok, nil
}

func (f *fakeLibrary) ModelExists(_ string, _ domain.LibraryLayout, sourceID string) (bool, error) {
	for _, ext := range []string{".step", ".wrl"} {
		if _, ok := f.models[sourceID+ext]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLibrary) WriteSymbol(_ string, l domain.LibraryLayout, sourceID string, s domain.SymbolArtifact) (string, error) {
	f.symbols[sourceID] = s.Name
	f.symbolWrites++
	return path.Join(l.Root, l.SymbolDir, l.SymbolFile), nil
}

func (f *fakeLibrary) WriteFootprint(_ string, l domain.LibraryLayout, fp domain.FootprintArtifact) (string, error) {
	if f.footprintErr != nil {
		return "", f.footprintErr
	}
	f.footprints[fp.Name] = fp.Content
	return path.Join(l.Root, l.FootprintDir, fp.Name+".kicad_mod"), nil
}

func (f *fakeLibrary) WriteModel(_ string, l domain.LibraryLayout, a domain.LocalAsset) (string, error) {
	f.models[a.FileName] = a.Data
	return path.Join(l.Root, l.ModelsDir, a.FileName), nil
}

func (f *fakeLibrary) Info(project string, l domain.LibraryLayout) (*domain.LibraryInfo, error) {
	return &domain.LibraryInfo{Project: project, Nickname: l.Nickname}, nil
}

// --- Fixtures ---

func importRecord() *domain.ComponentRecord {
	return &domain.ComponentRecord{SourceID: "C2040", Name: "RP2040"}
}

func importArtifacts() domain.ConvertedArtifacts {
	return domain.ConvertedArtifacts{
		SourceID:  "C2040",
		Symbol:    domain.SymbolArtifact{Name: "RP2040", Content: []byte("(kicad_symbol_lib)")},
		Footprint: domain.FootprintArtifact{Name: "LQFN-56_C2040", Content: []byte("(footprint)")},
		Warnings:  []string{"footprint: dropped shape on unknown layer 42"},
	}
}

func importAssets() []domain.LocalAsset {
	return []domain.LocalAsset{{Format: domain.ModelFormatSTEP, FileName: "C2040.step", Data: []byte("ISO-10303-21;"), SourceURL: "https://m/step"}}
}

// --- Tests ---

func TestLibraryService_ImportFresh(t *testing.T) {
	store := newFakeLibrary()
	service := NewLibraryService(store, nil, domain.DefaultLibraryLayout())

	result, err := service.Import(context.Background(), "/proj", importRecord(), importArtifacts(), importAssets(), domain.ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusImported, result.Status)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, "lcsc_imported", result.LibraryName)
	assert.Equal(t, "libs/lcsc/symbols/lcsc_imported.kicad_sym", result.Written[domain.ArtifactSymbol])
	assert.Equal(t, "libs/lcsc/footprints.pretty/LQFN-56_C2040.kicad_mod", result.Written[domain.ArtifactFootprint])
	assert.Equal(t, "libs/lcsc/3dmodels/C2040.step", result.Written[domain.ArtifactModel])
	assert.Empty(t, result.Failed)
	assert.True(t, result.IndexUpdated)
	assert.Equal(t, []string{"footprint: dropped shape on unknown layer 42"}, result.Warnings)

	sym, ok := store.index.Symbols.Lookup("lcsc_imported")
	require.True(t, ok)
	assert.Equal(t, "${KIPRJMOD}/libs/lcsc/symbols/lcsc_imported.kicad_sym", sym.URI)
	fp, ok := store.index.Footprints.Lookup("lcsc_imported")
	require.True(t, ok)
	assert.Equal(t, "${KIPRJMOD}/libs/lcsc/footprints.pretty", fp.URI)
	assert.False(t, store.locked, "lock released")
}

func TestLibraryService_ReimportConflicts(t *testing.T) {
	store := newFakeLibrary()
	service := NewLibraryService(store, nil, domain.DefaultLibraryLayout())
	ctx := context.Background()

	_, err := service.Import(ctx, "/proj", importRecord(), importArtifacts(), importAssets(), domain.ImportOptions{})
	require.NoError(t, err)

	result, err := service.Import(ctx, "/proj", importRecord(), importArtifacts(), importAssets(), domain.ImportOptions{})

	require.NoError(t, err, "a conflict is a result, not an error")
	assert.Equal(t, domain.ImportStatusConflict, result.Status)
	assert.Equal(t, []domain.ArtifactKind{domain.ArtifactSymbol, domain.ArtifactFootprint, domain.ArtifactModel}, result.Conflicts)
	assert.Empty(t, result.Written)
	assert.Equal(t, 1, store.indexWrites)

	conflicts, err := service.Conflicts("/proj", importRecord(), importArtifacts(), domain.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, result.Conflicts, conflicts)
}

func TestLibraryService_SelectiveOverwrite(t *testing.T) {
	store := newFakeLibrary()
	service := NewLibraryService(store, nil, domain.DefaultLibraryLayout())
	ctx := context.Background()
	_, err := service.Import(ctx, "/proj", importRecord(), importArtifacts(), importAssets(), domain.ImportOptions{})
	require.NoError(t, err)

	partial := domain.ImportOptions{Overwrite: map[domain.ArtifactKind]bool{domain.ArtifactSymbol: true}}
	result, err := service.Import(ctx, "/proj", importRecord(), importArtifacts(), importAssets(), partial)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusConflict, result.Status)
	assert.Equal(t, []domain.ArtifactKind{domain.ArtifactFootprint, domain.ArtifactModel}, result.Conflicts)
	assert.Equal(t, 1, store.symbolWrites, "a conflict writes nothing")

	// Replace the symbol, keep the rest.
	store.footprints["LQFN-56_C2040"] = []byte("(footprint old)")
	store.models["C2040.step"] = []byte("old")
	selective := partial.KeepUnlisted()
	result, err = service.Import(ctx, "/proj", importRecord(), importArtifacts(), importAssets(), selective)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusImported, result.Status)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, []domain.ArtifactKind{domain.ArtifactFootprint, domain.ArtifactModel}, result.Kept)
	assert.Equal(t, []domain.ArtifactKind{domain.ArtifactSymbol}, sortedWritten(result))
	assert.Equal(t, 2, store.symbolWrites)
	assert.Equal(t, []byte("(footprint old)"), store.footprints["LQFN-56_C2040"])
	assert.Equal(t, []byte("old"), store.models["C2040.step"])

	all := domain.ImportOptions{Overwrite: domain.OverwriteAll()}
	result, err = service.Import(ctx, "/proj", importRecord(), importArtifacts(), importAssets(), all)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusImported, result.Status)
	assert.Len(t, result.Written, 3)
	assert.False(t, result.IndexUpdated, "entries already registered")

	// No duplication after overwrite.
	assert.Len(t, store.index.Symbols.Entries, 1)
	assert.Len(t, store.index.Footprints.Entries, 1)
	assert.Len(t, store.symbols, 1)
}

func TestLibraryService_KeepWritesMissingKinds(t *testing.T) {
	store := newFakeLibrary()
	store.symbols["C2040"] = "RP2040"
	service := NewLibraryService(store, nil, domain.DefaultLibraryLayout())

	opts := domain.ImportOptions{}.KeepUnlisted()
	result, err := service.Import(context.Background(), "/proj", importRecord(), importArtifacts(), importAssets(), opts)

	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusImported, result.Status)
	assert.Equal(t, []domain.ArtifactKind{domain.ArtifactSymbol}, result.Kept)
	assert.Equal(t, []domain.ArtifactKind{domain.ArtifactFootprint, domain.ArtifactModel}, sortedWritten(result))
	assert.Zero(t, store.symbolWrites)
	assert.True(t, result.IndexUpdated)
}

func sortedWritten(result *domain.ImportResult) []domain.ArtifactKind {
	var kinds []domain.ArtifactKind
	for _, k := range domain.AllArtifactKinds {
		if _, ok := result.Written[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func TestLibraryService_SkipModels(t *testing.T) {
	store := newFakeLibrary()
	store.models["C2040.step"] = []byte("old")
	service := NewLibraryService(store, nil, domain.DefaultLibraryLayout())

	result, err := service.Import(context.Background(), "/proj", importRecord(), importArtifacts(), importAssets(),
		domain.ImportOptions{SkipModels: true})

	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusImported, result.Status)
	assert.NotContains(t, result.Written, domain.ArtifactModel)
	assert.Equal(t, []byte("old"), store.models["C2040.step"])
}

func TestLibraryService_FootprintFailureKeepsSymbol(t *testing.T) {
	store := newFakeLibrary()
	store.footprintErr = errors.New("disk full")
	service := NewLibraryService(store, nil, domain.DefaultLibraryLayout())

	result, err := service.Import(context.Background(), "/proj", importRecord(), importArtifacts(), nil, domain.ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusPartial, result.Status)
	assert.Contains(t, result.Written, domain.ArtifactSymbol)
	assert.Equal(t, "disk full", result.Failed[domain.ArtifactFootprint])
	assert.Contains(t, store.symbols, "C2040")
	assert.True(t, result.IndexUpdated)
}

func TestLibraryService_RejectedSideFails(t *testing.T) {
	store := newFakeLibrary()
	service := NewLibraryService(store, nil, domain.DefaultLibraryLayout())
	a := importArtifacts()
	a.Footprint.Content = nil
	a.Rejected = map[domain.ArtifactKind]error{domain.ArtifactFootprint: errors.New(`footprint: pad "3": through-hole pad without drill`)}

	result, err := service.Import(context.Background(), "/proj", importRecord(), a, nil, domain.ImportOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusPartial, result.Status)
	assert.Contains(t, result.Failed[domain.ArtifactFootprint], `pad "3"`)
	assert.Contains(t, result.Written, domain.ArtifactSymbol)
	assert.Empty(t, store.footprints)
}

func TestLibraryService_IndexWriteFailure(t *testing.T) {
	store := newFakeLibrary()
	store.writeIndexFn = func(*domain.LibraryIndex) error {
		return &domain.IndexWriteError{Table: domain.TableFootprint, Path: "/proj/fp-lib-table", Err: errors.New("rename: permission denied")}
	}
	service := NewLibraryService(store, nil, domain.DefaultLibraryLayout())

	result, err := service.Import(context.Background(), "/proj", importRecord(), importArtifacts(), nil, domain.ImportOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexWriteFailure)
	var iwe *domain.IndexWriteError
	require.True(t, errors.As(err, &iwe))
	assert.Equal(t, domain.TableFootprint, iwe.Table)
	require.NotNil(t, result)
	assert.False(t, result.IndexUpdated)
	assert.Empty(t, store.index.Symbols.Entries, "prior index state intact")
}

func TestLibraryService_InvalidInput(t *testing.T) {
	service := NewLibraryService(newFakeLibrary(), nil, domain.DefaultLibraryLayout())

	_, err := service.Import(context.Background(), "/proj", nil, importArtifacts(), nil, domain.ImportOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.Import(context.Background(), "", importRecord(), importArtifacts(), nil, domain.ImportOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLibraryService_LockFailure(t *testing.T) {
	store := newFakeLibrary()
	store.lockErr = context.DeadlineExceeded
	service := NewLibraryService(store, nil, domain.DefaultLibraryLayout())

	_, err := service.Import(context.Background(), "/proj", importRecord(), importArtifacts(), nil, domain.ImportOptions{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, store.symbols)
}

func TestLibraryService_InfoAndWatch(t *testing.T) {
	service := NewLibraryService(newFakeLibrary(), nil, domain.DefaultLibraryLayout())

	info, err := service.Info("/proj")
	require.NoError(t, err)
	assert.Equal(t, "lcsc_imported", info.Nickname)

	_, err = service.Watch(context.Background(), "/proj")
	assert.Error(t, err)
}
