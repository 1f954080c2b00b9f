package mcp

import (
	"context"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	record  *domain.ComponentRecord
	err     error
	ids     []string
	opts    []domain.SearchOptions
	hits    []domain.SearchHit
	queries []domain.KeywordQuery
}

func (m *mockSearchService) Search(_ context.Context, id string, opts domain.SearchOptions) (*domain.ComponentRecord, error) {
	m.ids = append(m.ids, id)
	m.opts = append(m.opts, opts)
	return m.record, m.err
}

func (m *mockSearchService) Find(_ context.Context, query domain.KeywordQuery) ([]domain.SearchHit, error) {
	m.queries = append(m.queries, query)
	return m.hits, m.err
}

// mockComponentService is a mock implementation of driving.ComponentService.
type mockComponentService struct {
	result  *domain.ImportResult
	err     error
	project string
	id      string
	opts    domain.ImportOptions
}

func (m *mockComponentService) Convert(_ context.Context, _ string, _ domain.SearchOptions) (*domain.ComponentRecord, domain.ConvertedArtifacts, error) {
	return nil, domain.ConvertedArtifacts{}, m.err
}

func (m *mockComponentService) Import(_ context.Context, project, id string, opts domain.ImportOptions) (*domain.ImportResult, error) {
	m.project = project
	m.id = id
	m.opts = opts
	return m.result, m.err
}

// mockLibraryService is a mock implementation of driving.LibraryService.
// Only Info is exercised by the server.
type mockLibraryService struct {
	info     *domain.LibraryInfo
	err      error
	projects []string
}

func (m *mockLibraryService) Import(context.Context, string, *domain.ComponentRecord,
	domain.ConvertedArtifacts, []domain.LocalAsset, domain.ImportOptions) (*domain.ImportResult, error) {
	return nil, m.err
}

func (m *mockLibraryService) Conflicts(string, *domain.ComponentRecord, domain.ConvertedArtifacts, domain.ImportOptions) ([]domain.ArtifactKind, error) {
	return nil, m.err
}

func (m *mockLibraryService) Info(project string) (*domain.LibraryInfo, error) {
	m.projects = append(m.projects, project)
	return m.info, m.err
}

func (m *mockLibraryService) Watch(context.Context, string) (<-chan domain.LibraryEvent, error) {
	return nil, m.err
}

func (m *mockLibraryService) Layout() domain.LibraryLayout {
	return domain.DefaultLibraryLayout()
}
