package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

func TestConfigGet(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "get", "cache.enabled")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestConfigGet_UnknownKey(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "config", "get", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigSet(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "set", "preview.size", "512")
	require.NoError(t, err)
	assert.Contains(t, out, "preview.size = 512")
	assert.Equal(t, "512", ts.settings.values["preview.size"])
}

func TestConfigList(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "list")
	require.NoError(t, err)
	assert.Equal(t, "cache.enabled = true\npreview.size = 400\n", out)
}

func TestConfigList_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"preview.size": "400"`)
}

func TestConfig_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(&Services{})

	_, err := execute(t, "config", "list")
	assert.ErrorIs(t, err, errNotConfigured)
}

func TestConfigUnset(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "unset", "preview.size")
	require.NoError(t, err)
	assert.Equal(t, "preview.size = 400 (default)\n", out)
	assert.Equal(t, []string{"preview.size"}, ts.settings.resets)

	_, err = execute(t, "config", "unset", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigPath(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/kicad-lcsc/config.toml\n", out)
}
