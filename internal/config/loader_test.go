package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	loader := NewLoader(t.TempDir(), Development)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Cache.DataFrameCapacity)
	assert.Equal(t, 3600*time.Second, cfg.Cache.DataFrameTTLSeconds)
	assert.Equal(t, 50, cfg.Cache.GraphCapacity)
	assert.Equal(t, 1800*time.Second, cfg.Cache.GraphTTLSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Contains(t, cfg.LoadedFrom, "defaults")
}

func TestLoad_BaseFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
server:
  port: 9090
cache:
  dataframe_capacity: 20
  graph_capacity: 10
`)

	loader := NewLoader(dir, Development)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Cache.DataFrameCapacity)
	assert.Equal(t, 10, cfg.Cache.GraphCapacity)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "untouched fields keep defaults")
}

func TestLoad_EnvironmentFileOverridesBase(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "server:\n  port: 9090\n")
	writeConfig(t, dir, "production.yaml", "server:\n  port: 9999\n")

	loader := NewLoader(dir, Production)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_EnvVariablesHavePriority(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "server:\n  port: 9090\n")

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATA_DIR", "/srv/reference")
	t.Setenv("DATAFRAME_CAPACITY", "7")
	t.Setenv("DATAFRAME_TTL_SECONDS", "120")
	t.Setenv("GRAPH_TTL_SECONDS", "60")

	loader := NewLoader(dir, Development)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/srv/reference", cfg.Data.Dir)
	assert.Equal(t, 7, cfg.Cache.DataFrameCapacity)
	assert.Equal(t, 120*time.Second, cfg.Cache.DataFrameTTLSeconds)
	assert.Equal(t, 60*time.Second, cfg.Cache.GraphTTLSeconds)
}

func TestLoad_YAMLWinsOverJSONSibling(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "server:\n  port: 9090\n")
	writeConfig(t, dir, "base.json", `{"server":{"port":9999}}`)

	// Format probing follows registration order, so the outcome is the same
	// on every run.
	for i := 0; i < 5; i++ {
		loader := NewLoader(dir, Development)
		cfg, err := loader.Load()
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "server: [broken\n")

	loader := NewLoader(dir, Development)
	_, err := loader.Load()
	require.Error(t, err)
}

func TestValidate_RejectsInvalidValues(t *testing.T) {
	loader := NewLoader(t.TempDir(), Development)
	cfg, err := loader.Load()
	require.NoError(t, err)

	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg, err = loader.Load()
	require.NoError(t, err)
	cfg.Cache.DataFrameCapacity = 0
	assert.Error(t, cfg.Validate())

	cfg, err = loader.Load()
	require.NoError(t, err)
	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestValidate_DataFrameTTLMustCoverGraphTTL(t *testing.T) {
	loader := NewLoader(t.TempDir(), Development)
	cfg, err := loader.Load()
	require.NoError(t, err)

	cfg.Cache.DataFrameTTLSeconds = 10 * time.Second
	cfg.Cache.GraphTTLSeconds = 20 * time.Second
	require.Error(t, cfg.Validate())

	cfg.Cache.DataFrameTTLSeconds = 20 * time.Second
	assert.NoError(t, cfg.Validate())
}
