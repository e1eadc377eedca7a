// Recommender System - Crypto Asset Recommendation Engine
// Copyright 2026 Fey F. (feyfry)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feyfry/recommender-system-sub000

// Package config provides layered application configuration using Koanf v2.
//
// Precedence, lowest to highest: built-in defaults, optional YAML config
// file, environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/feyfry/recommender-system-sub000/internal/logging"
	"github.com/feyfry/recommender-system-sub000/internal/recommend"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/recommender/config.yaml",
	"/etc/recommender/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config
// file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Config is the top-level application configuration.
type Config struct {
	Catalog   CatalogConfig    `json:"catalog" koanf:"catalog"`
	Engine    recommend.Config `json:"engine" koanf:"engine"`
	Snapshots SnapshotsConfig  `json:"snapshots" koanf:"snapshots"`
	Metrics   MetricsConfig    `json:"metrics" koanf:"metrics"`
	Logging   logging.Config   `json:"logging" koanf:"logging"`
}

// CatalogConfig locates the project catalog and interaction data files.
type CatalogConfig struct {
	// ProjectsPath is the JSON file holding the project catalog.
	ProjectsPath string `json:"projects_path" koanf:"projects_path"`

	// InteractionsPath is an optional JSON file of historical interactions
	// loaded into the matrix at startup.
	InteractionsPath string `json:"interactions_path" koanf:"interactions_path"`

	// ReloadInterval is how often the catalog file is re-read.
	// Zero disables periodic reloads.
	ReloadInterval time.Duration `json:"reload_interval" koanf:"reload_interval"`
}

// SnapshotsConfig controls on-disk engine state snapshots.
type SnapshotsConfig struct {
	// Dir is the directory for snapshot files.
	Dir string `json:"dir" koanf:"dir"`

	// SaveInterval is how often engine state is persisted.
	// Zero disables periodic saves.
	SaveInterval time.Duration `json:"save_interval" koanf:"save_interval"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" koanf:"enabled"`
	Addr    string `json:"addr" koanf:"addr"`
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env
// vars.
func defaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			ProjectsPath:     "/data/projects.json",
			InteractionsPath: "",
			ReloadInterval:   15 * time.Minute,
		},
		Engine: *recommend.DefaultConfig(),
		Snapshots: SnapshotsConfig{
			Dir:          "/data/snapshots",
			SaveInterval: 1 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9109",
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Catalog.ProjectsPath == "" {
		return fmt.Errorf("catalog.projects_path must not be empty")
	}
	if c.Catalog.ReloadInterval < 0 {
		return fmt.Errorf("catalog.reload_interval must not be negative")
	}
	if c.Snapshots.SaveInterval < 0 {
		return fmt.Errorf("snapshots.save_interval must not be negative")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must not be empty when metrics are enabled")
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Unmapped variables are skipped so random environment variables do
// not pollute the configuration.
//
// Examples:
//   - CATALOG_PROJECTS_PATH -> catalog.projects_path
//   - ENGINE_CACHE_ENABLED  -> engine.cache.enabled
//   - LOG_LEVEL             -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Catalog mappings
		"catalog_projects_path":     "catalog.projects_path",
		"catalog_interactions_path": "catalog.interactions_path",
		"catalog_reload_interval":   "catalog.reload_interval",

		// Engine weight mappings
		"engine_base_fecf_weight":      "engine.weights.base_fecf",
		"engine_cold_start_weight":     "engine.weights.cold_start_fecf",
		"engine_low_threshold":         "engine.weights.low_threshold",
		"engine_min_ncf_interactions":  "engine.weights.min_ncf_interactions",
		"engine_high_threshold":        "engine.weights.high_threshold",
		"engine_confidence_threshold":  "engine.weights.confidence_threshold",
		"engine_base_diversity_weight": "engine.weights.base_diversity",

		// Engine ensemble mappings
		"engine_confidence_floor":  "engine.ensemble.confidence_floor",
		"engine_agreement_delta":   "engine.ensemble.agreement_delta",
		"engine_agreement_bonus":   "engine.ensemble.agreement_bonus",
		"engine_fecf_only_penalty": "engine.ensemble.fecf_only_penalty",
		"engine_ncf_only_penalty":  "engine.ensemble.ncf_only_penalty",

		// Engine cache mappings
		"engine_cache_enabled":          "engine.cache.enabled",
		"engine_cache_cold_start_ttl":   "engine.cache.cold_start_ttl",
		"engine_cache_low_activity_ttl": "engine.cache.low_activity_ttl",
		"engine_cache_default_ttl":      "engine.cache.default_ttl",
		"engine_cache_max_entries":      "engine.cache.max_entries",

		// Engine limit mappings
		"engine_default_n":        "engine.limits.default_n",
		"engine_max_n":            "engine.limits.max_n",
		"engine_provider_timeout": "engine.limits.provider_timeout",

		// Snapshot mappings
		"snapshots_dir":           "snapshots.dir",
		"snapshots_save_interval": "snapshots.save_interval",

		// Metrics mappings
		"metrics_enabled": "metrics.enabled",
		"metrics_addr":    "metrics.addr",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
