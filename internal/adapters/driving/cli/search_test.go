package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

func TestSearchCmd_Text(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "C2040")
	require.NoError(t, err)

	assert.Contains(t, out, "C2040  RP2040")
	assert.Contains(t, out, "Raspberry Pi")
	assert.Contains(t, out, "LQFN-56")
	assert.Contains(t, out, "Price breaks:")
	assert.Contains(t, out, "1-9")
	assert.Contains(t, out, "$0.95")
	assert.Contains(t, out, "symbol + footprint")
	assert.Contains(t, out, "easyeda, jlcpcb")
	assert.Contains(t, out, "note: jlcpcb unavailable: timeout")
	assert.False(t, ts.search.opts.Refresh)
}

func TestSearchCmd_Refresh(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "search", "C2040", "--refresh")
	require.NoError(t, err)
	assert.True(t, ts.search.opts.Refresh)
}

func TestSearchCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "C2040", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"source_id": "C2040"`)
	assert.Contains(t, out, `"classification": "extended"`)
	assert.NotContains(t, out, "Price breaks:")
}

func TestSearchCmd_YAML(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "C2040", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "source_id: C2040")
	assert.Contains(t, out, "stock: 1200")
}

func TestSearchCmd_JSONAndYAML(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "search", "C2040", "--json", "--yaml")
	assert.Error(t, err)
}

func TestSearchCmd_NotFound(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.record = nil
	ts.search.err = domain.ErrNotFound

	_, err := execute(t, "search", "C9999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchCmd_NoGeometry(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.record.Geometry = nil

	out, err := execute(t, "search", "C2040")
	require.NoError(t, err)
	assert.Contains(t, out, "none")
}

func TestSearchCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	_, err := execute(t, "search", "C2040")
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestSearchCmd_RequiresID(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "search")
	assert.Error(t, err)
}

func TestSearchCmd_Keyword(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.hits = []domain.SearchHit{
		{SourceID: "C19702", Title: "CL10A106KP8NNNC", Package: "0603"},
		{Title: "Generic 10uF"},
	}

	out, err := execute(t, "search", "--keyword", "capacitor", "--value", "10uF", "--package", "0603", "--page", "2")
	require.NoError(t, err)

	require.Len(t, ts.search.queries, 1)
	assert.Equal(t, domain.KeywordQuery{Name: "capacitor", Value: "10uF", Package: "0603", Page: 2}, ts.search.queries[0])
	assert.Contains(t, out, `"capacitor 10uF 0603" page 2`)
	assert.Contains(t, out, "C19702")
	assert.Contains(t, out, "CL10A106KP8NNNC")
	assert.Contains(t, out, "more: --page 3")
}

func TestSearchCmd_KeywordJSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.hits = []domain.SearchHit{{SourceID: "C46749", Title: "NE555DR"}}

	out, err := execute(t, "search", "-k", "NE555", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"source_id": "C46749"`)
	assert.Contains(t, out, `"title": "NE555DR"`)
}

func TestSearchCmd_KeywordNoHits(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "search", "-k", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, `No parts found for "zzz".`)

	out, err = execute(t, "search", "-k", "zzz", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestSearchCmd_KeywordAndID(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "search", "C2040", "--keyword", "NE555")
	assert.Error(t, err)
	assert.Empty(t, ts.search.queries)
}

func TestSearchCmd_KeywordError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.err = domain.ErrRemoteUnavailable

	_, err := execute(t, "search", "--manufacturer", "TI")
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestRootCmd_BuildsServicesOnce(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer func() { builder = nil; cfgDir = "" }()

	built = false
	calls := 0
	var gotDir string
	builder = func(dir string) (*Services, error) {
		calls++
		gotDir = dir
		return &Services{Search: ts.search}, nil
	}

	_, err := execute(t, "--config-dir", "/tmp/kicad-lcsc-test", "search", "C2040")
	require.NoError(t, err)
	_, err = execute(t, "search", "C2040")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "/tmp/kicad-lcsc-test", gotDir)
}

func TestRootCmd_VersionSkipsBuild(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer func() { builder = nil }()

	built = false
	builder = func(string) (*Services, error) {
		t.Fatal("builder called for version")
		return nil, nil
	}

	_, err := execute(t, "version")
	require.NoError(t, err)
}
