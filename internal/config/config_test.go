package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graft-pt/graft/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 7475, cfg.Port)
	assert.Equal(t, 500, cfg.ReseedInterOpDelayMS)
}

func TestLoadFromTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graft.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataDir = "/var/lib/graft"
port = 9000
reseedDefaultRPM = 30
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/graft", cfg.DataDir)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 30, cfg.ReseedDefaultRPM)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graft.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 9000\n"), 0o644))
	t.Setenv("GRAFT_PORT", "1234")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Port)
}

func TestReseedInterOpDelay(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 500_000_000, int(cfg.ReseedInterOpDelay()))
}
