package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Application settings
	Port  string `envconfig:"PORT" default:"5000"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Remote store. The token has no default: without it the API starts but
	// every data endpoint reports "GitHub not configured".
	GitHubToken       string        `envconfig:"GITHUB_TOKEN"`
	GitHubRepo        string        `envconfig:"GITHUB_REPO" default:"AlfaLuaTest/piano-sheets-db"`
	GitHubBranch      string        `envconfig:"GITHUB_BRANCH" default:"main"`
	GitHubAPIURL      string        `envconfig:"GITHUB_API_URL" default:"https://api.github.com"`
	SheetsFilePath    string        `envconfig:"SHEETS_FILE_PATH" default:"sheets/piano_sheets.json"`
	FavoritesFilePath string        `envconfig:"FAVORITES_FILE_PATH" default:"sheets/favorites.json"`
	ReadmePath        string        `envconfig:"README_PATH" default:"README.md"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// Protects admin endpoints and signs collector tokens
	ScraperKey string `envconfig:"SCRAPER_KEY"`

	// Optional infrastructure
	ValkeyURL       string `envconfig:"VALKEY_URL"`
	MongodbURL      string `envconfig:"MONGODB_URL"`
	MongodbDatabase string `envconfig:"MONGODB_DATABASE" default:"pianosheets"`

	// Collector tuning file; see LoadCollectorConfig
	CollectorConfigPath string `envconfig:"COLLECTOR_CONFIG_PATH"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have a required shape
func (c *Config) Validate() error {
	owner, name, ok := strings.Cut(c.GitHubRepo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("GITHUB_REPO must be in owner/name form, got %q", c.GitHubRepo)
	}
	if c.SheetsFilePath == "" {
		return fmt.Errorf("SHEETS_FILE_PATH cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// GitHubConfigured reports whether a store credential is present
func (c *Config) GitHubConfigured() bool {
	return c.GitHubToken != ""
}

// AdminEnabled reports whether admin endpoints can authenticate callers
func (c *Config) AdminEnabled() bool {
	return c.ScraperKey != ""
}

// RunHistoryEnabled reports whether collector runs are recorded in MongoDB
func (c *Config) RunHistoryEnabled() bool {
	return c.MongodbURL != ""
}
