// Package config holds the migration pipeline's configuration: source and
// target environment credentials, snapshot file locations, and the
// parallelism/retry knobs of §5. It mirrors the teacher project's config
// loading idiom — JSON file with defaults applied over it, atomic save,
// redaction for logging — adapted to this domain's fields.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvironmentConfig names one side (source or target) of a migration.
type EnvironmentConfig struct {
	EnvironmentID string `json:"environment_id"`
	APIKey        string `json:"api_key"`
}

// Config holds all pipeline configuration.
type Config struct {
	BaseURL string `json:"base_url"`

	Source *EnvironmentConfig `json:"source,omitempty"`
	Target *EnvironmentConfig `json:"target,omitempty"`

	ItemsFilename  string `json:"items_filename"`
	AssetsFilename string `json:"assets_filename"`

	MaxRetries      int           `json:"max_retries"`
	RetryBackoff    time.Duration `json:"retry_backoff"`
	RetryMaxBackoff time.Duration `json:"retry_max_backoff"`

	ItemFetchParallelism     int `json:"item_fetch_parallelism"`
	AssetDownloadParallelism int `json:"asset_download_parallelism"`
	AssetUploadParallelism   int `json:"asset_upload_parallelism"`
	AssetEditParallelism     int `json:"asset_edit_parallelism"`

	FailOnError         bool `json:"fail_on_error"`
	ReplaceInvalidLinks bool `json:"replace_invalid_links"`
	Force               bool `json:"force"`
	DryRun              bool `json:"dry_run"`

	LogLevel string `json:"log_level"`
	DataDir  string `json:"data_dir"`
}

// DefaultConfig returns a configuration with sensible defaults (§5's
// parallelism limits, §5's retry policy).
func DefaultConfig() *Config {
	return &Config{
		BaseURL:                  "https://manage.kontent.ai",
		ItemsFilename:            "items.json",
		AssetsFilename:           "assets.zip",
		MaxRetries:               3,
		RetryBackoff:             time.Second,
		RetryMaxBackoff:          time.Minute,
		ItemFetchParallelism:     1,
		AssetDownloadParallelism: 5,
		AssetUploadParallelism:   3,
		AssetEditParallelism:     1,
		LogLevel:                 "info",
		DataDir:                  "",
	}
}

// LoadConfig loads configuration from path, or returns defaults if the
// file does not exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, ".kontent-migrate", "config.json")
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the configuration to path, via a temp file + atomic rename.
func (c *Config) Save(path string) error {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".kontent-migrate", "config.json")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename config file: %w", err)
	}
	return nil
}

// Redact returns a loggable copy of the config with API keys masked.
func (c *Config) Redact() map[string]interface{} {
	out := map[string]interface{}{
		"base_url":        c.BaseURL,
		"items_filename":  c.ItemsFilename,
		"assets_filename": c.AssetsFilename,
		"max_retries":     c.MaxRetries,
		"log_level":       c.LogLevel,
		"fail_on_error":   c.FailOnError,
		"dry_run":         c.DryRun,
	}
	if c.Source != nil {
		out["source_environment_id"] = c.Source.EnvironmentID
		out["source_api_key"] = redactValue(c.Source.APIKey)
	}
	if c.Target != nil {
		out["target_environment_id"] = c.Target.EnvironmentID
		out["target_api_key"] = redactValue(c.Target.APIKey)
	}
	return out
}

// redactValue masks a bare secret value for logging. Unlike
// observability.RedactString, which only matches "key=value"-shaped
// substrings inside a log line, this masks the value itself.
func redactValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "***REDACTED***"
	}
	return value[:4] + "***REDACTED***"
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.ItemsFilename == "" {
		cfg.ItemsFilename = defaults.ItemsFilename
	}
	if cfg.AssetsFilename == "" {
		cfg.AssetsFilename = defaults.AssetsFilename
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = defaults.RetryBackoff
	}
	if cfg.RetryMaxBackoff == 0 {
		cfg.RetryMaxBackoff = defaults.RetryMaxBackoff
	}
	if cfg.ItemFetchParallelism == 0 {
		cfg.ItemFetchParallelism = defaults.ItemFetchParallelism
	}
	if cfg.AssetDownloadParallelism == 0 {
		cfg.AssetDownloadParallelism = defaults.AssetDownloadParallelism
	}
	if cfg.AssetUploadParallelism == 0 {
		cfg.AssetUploadParallelism = defaults.AssetUploadParallelism
	}
	if cfg.AssetEditParallelism == 0 {
		cfg.AssetEditParallelism = defaults.AssetEditParallelism
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
}
