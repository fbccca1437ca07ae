package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := DefaultConfig()
	cfg.Source = &EnvironmentConfig{EnvironmentID: "env-1", APIKey: "secret"}
	cfg.MaxRetries = 7

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-1", loaded.Source.EnvironmentID)
	assert.Equal(t, "secret", loaded.Source.APIKey)
	assert.Equal(t, 7, loaded.MaxRetries)
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.json")

	partial := &Config{MaxRetries: 9}
	require.NoError(t, partial.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.MaxRetries)
	assert.Equal(t, DefaultConfig().BaseURL, loaded.BaseURL)
	assert.Equal(t, DefaultConfig().AssetDownloadParallelism, loaded.AssetDownloadParallelism)
}

func TestRedactMasksAPIKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = &EnvironmentConfig{EnvironmentID: "env-1", APIKey: "topsecret"}

	redacted := cfg.Redact()
	assert.Equal(t, "env-1", redacted["source_environment_id"])
	assert.NotEqual(t, "topsecret", redacted["source_api_key"])
	assert.Contains(t, redacted["source_api_key"], "***REDACTED***")
}
