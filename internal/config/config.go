// Package config provides configuration management for mindline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the HTTP listen port.
	DefaultPort = 8742
	// DefaultModel is the structured-output model.
	DefaultModel = "gpt-4o"
	// DefaultPerplexityModel is the answer/search model.
	DefaultPerplexityModel = "sonar"
)

// Config holds all runtime settings. Values come from defaults, then the
// YAML settings file, then MINDLINE_* environment variables, in that order.
type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	Model         string `yaml:"model"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`

	PerplexityAPIKey string `yaml:"perplexity_api_key"`
	PerplexityModel  string `yaml:"perplexity_model"`

	DBDriver string `yaml:"db_driver"`
	DBPath   string `yaml:"db_path"`
	DBDSN    string `yaml:"db_dsn"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisTTLHours int    `yaml:"redis_ttl_hours"`

	MaxAttempts       int `yaml:"max_attempts"`
	RecentLineWindow  int `yaml:"recent_line_window"`
	SearchConcurrency int `yaml:"search_concurrency"`
	FetchConcurrency  int `yaml:"fetch_concurrency"`
	FetchTimeoutSecs  int `yaml:"fetch_timeout_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:              DefaultPort,
		LogLevel:          "info",
		Model:             DefaultModel,
		PerplexityModel:   DefaultPerplexityModel,
		DBDriver:          "sqlite",
		DBPath:            DBPath(),
		RedisTTLHours:     24,
		MaxAttempts:       3,
		RecentLineWindow:  10,
		SearchConcurrency: 3,
		FetchConcurrency:  10,
		FetchTimeoutSecs:  5,
	}
}

// Load builds the effective configuration: defaults, overlaid with the
// settings file at path (missing file is fine), overlaid with environment
// variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = SettingsPath()
	}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setInt(&c.Port, "MINDLINE_PORT")
	setString(&c.LogLevel, "MINDLINE_LOG_LEVEL")
	setString(&c.Model, "MINDLINE_MODEL")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.OpenAIBaseURL, "MINDLINE_OPENAI_BASE_URL")
	setString(&c.PerplexityAPIKey, "PERPLEXITY_API_KEY")
	setString(&c.PerplexityModel, "MINDLINE_PERPLEXITY_MODEL")
	setString(&c.DBDriver, "MINDLINE_DB_DRIVER")
	setString(&c.DBPath, "MINDLINE_DB_PATH")
	setString(&c.DBDSN, "MINDLINE_DB_DSN")
	setString(&c.RedisAddr, "MINDLINE_REDIS_ADDR")
	setInt(&c.MaxAttempts, "MINDLINE_MAX_ATTEMPTS")
	setInt(&c.RecentLineWindow, "MINDLINE_RECENT_LINE_WINDOW")
}

// FetchTimeout returns the page-fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// RedisTTL returns the Redis cache entry lifetime.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.RedisTTLHours) * time.Hour
}

// DataDir returns the per-user data directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".mindline")
}

// DBPath returns the default SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), "mindline.db")
}

// SettingsPath returns the default settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.yaml")
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o755)
}
