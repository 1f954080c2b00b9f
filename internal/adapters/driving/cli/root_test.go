package cli

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

type mockSearch struct {
	record  *domain.ComponentRecord
	err     error
	opts    domain.SearchOptions
	hits    []domain.SearchHit
	queries []domain.KeywordQuery
}

func (m *mockSearch) Search(_ context.Context, _ string, opts domain.SearchOptions) (*domain.ComponentRecord, error) {
	m.opts = opts
	return m.record, m.err
}

func (m *mockSearch) Find(_ context.Context, query domain.KeywordQuery) ([]domain.SearchHit, error) {
	m.queries = append(m.queries, query)
	return m.hits, m.err
}

type mockComponent struct {
	record    *domain.ComponentRecord
	artifacts domain.ConvertedArtifacts
	results   []*domain.ImportResult
	err       error
	calls     []domain.ImportOptions
}

func (m *mockComponent) Convert(_ context.Context, _ string, _ domain.SearchOptions) (*domain.ComponentRecord, domain.ConvertedArtifacts, error) {
	return m.record, m.artifacts, m.err
}

func (m *mockComponent) Import(_ context.Context, _, _ string, opts domain.ImportOptions) (*domain.ImportResult, error) {
	m.calls = append(m.calls, opts)
	if m.err != nil {
		return nil, m.err
	}
	res := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return res, nil
}

type mockLibrary struct {
	info   *domain.LibraryInfo
	events []domain.LibraryEvent
}

func (m *mockLibrary) Import(context.Context, string, *domain.ComponentRecord, domain.ConvertedArtifacts, []domain.LocalAsset, domain.ImportOptions) (*domain.ImportResult, error) {
	return nil, nil
}

func (m *mockLibrary) Conflicts(string, *domain.ComponentRecord, domain.ConvertedArtifacts, domain.ImportOptions) ([]domain.ArtifactKind, error) {
	return nil, nil
}

func (m *mockLibrary) Info(project string) (*domain.LibraryInfo, error) {
	return m.info, nil
}

func (m *mockLibrary) Watch(_ context.Context, _ string) (<-chan domain.LibraryEvent, error) {
	ch := make(chan domain.LibraryEvent, len(m.events))
	for _, ev := range m.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (m *mockLibrary) Layout() domain.LibraryLayout {
	return domain.DefaultLibraryLayout()
}

type mockPreview struct {
	entries map[domain.ArtifactKind]domain.CacheEntry
}

func (m *mockPreview) Select(context.Context, string, domain.ConvertedArtifacts) uint64 { return 1 }

func (m *mockPreview) Current(kind domain.ArtifactKind) domain.CacheEntry { return m.entries[kind] }

func (m *mockPreview) Get(key domain.CacheKey) (domain.CacheEntry, bool) {
	e, ok := m.entries[key.Kind]
	return e, ok
}

func (m *mockPreview) Wait(_ context.Context, key domain.CacheKey) (domain.CacheEntry, error) {
	return m.entries[key.Kind], nil
}

type mockSettings struct {
	values map[string]string
	resets []string
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := domain.DefaultAppSettings()
	return &s, nil
}

func (m *mockSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettings) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockSettings) Value(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("unknown key %q: %w", key, domain.ErrInvalidInput)
	}
	return v, nil
}

func (m *mockSettings) SetValue(key, raw string) error {
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("unknown key %q: %w", key, domain.ErrInvalidInput)
	}
	m.values[key] = raw
	return nil
}

func (m *mockSettings) Reset(key string) error {
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("unknown key %q: %w", key, domain.ErrInvalidInput)
	}
	m.resets = append(m.resets, key)
	return nil
}

func (m *mockSettings) Path() string { return "/tmp/kicad-lcsc/config.toml" }

func (m *mockSettings) List() (map[string]string, error) {
	return m.values, nil
}

func testRecord() *domain.ComponentRecord {
	return &domain.ComponentRecord{
		SourceID:       "C2040",
		Name:           "RP2040",
		Manufacturer:   "Raspberry Pi",
		Package:        "LQFN-56",
		Classification: domain.ClassificationExtended,
		Stock:          1200,
		PriceTiers: []domain.PriceTier{
			{MinQty: 1, MaxQty: 9, UnitPrice: decimal.RequireFromString("1.10")},
			{MinQty: 10, UnitPrice: decimal.RequireFromString("0.95")},
		},
		Geometry: &domain.Geometry{},
		Sources:  []domain.SourceTag{domain.SourceEasyEDA, domain.SourceJLCPCB},
		Notes:    []string{"jlcpcb unavailable: timeout"},
	}
}

type testServices struct {
	search    *mockSearch
	component *mockComponent
	library   *mockLibrary
	preview   *mockPreview
	settings  *mockSettings
}

// setupTestServices installs mocks and returns them with a cleanup
// function that restores globals and flag state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		search:    &mockSearch{record: testRecord()},
		component: &mockComponent{record: testRecord()},
		library:   &mockLibrary{},
		preview:   &mockPreview{},
		settings:  &mockSettings{values: map[string]string{"cache.enabled": "true", "preview.size": "400"}},
	}
	SetServices(&Services{
		Search:    ts.search,
		Component: ts.component,
		Library:   ts.library,
		Preview:   ts.preview,
		Settings:  ts.settings,
	})
	prevInteractive, prevPrompt := interactive, promptOverwrite
	interactive = func() bool { return false }

	return ts, func() {
		SetServices(&Services{})
		built = false
		interactive, promptOverwrite = prevInteractive, prevPrompt
		searchJSON, searchYAML, searchRefresh = false, false, false
		searchQuery = domain.KeywordQuery{}
		importProject, importOverwrite, importOverwriteAll = ".", nil, false
		importNo3D, importNoPrompt, importJSON, importYAML = false, false, false, false
		libraryProject, libraryJSON, libraryYAML = ".", false, false
		convertOut, convertRefresh = ".", false
		previewOut = "."
		configJSON, versionJSON = false, false
		mcpPort, mcpMetricsAddr = 0, ""
		rootCmd.SetArgs(nil)
	}
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
