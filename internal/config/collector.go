package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	toml "github.com/pelletier/go-toml/v2"
)

// Listing strategies
const (
	ListingPages  = "pages"
	ListingScroll = "scroll"
	ListingStatic = "static"
)

// Cleanup modes
const (
	CleanLines   = "lines"
	CleanCompact = "compact"
)

// Sink kinds
const (
	SinkCatalog = "catalog"
	SinkFiles   = "files"
	SinkLocal   = "local"
)

// SelectorConfig lists the CSS selectors used against the target site.
// Every list is an ordered fallback chain.
type SelectorConfig struct {
	Links     string   `toml:"links"`
	Title     []string `toml:"title"`
	Artist    []string `toml:"artist"`
	Thumbnail string   `toml:"thumbnail"`
	Next      string   `toml:"next"`
	Notes     []string `toml:"notes"`
	Category  string   `toml:"category"`
}

// CollectorConfig holds tunables for the collector batch job
type CollectorConfig struct {
	BaseURL     string `toml:"base_url"`
	ListingPath string `toml:"listing_path"`
	Listing     string `toml:"listing"`
	Difficulty  string `toml:"difficulty"`
	CleanMode   string `toml:"clean_mode"`
	Sink        string `toml:"sink"`
	OutputDir   string `toml:"output_dir"`

	// Politeness budget, all in milliseconds
	PageDelayMS   int `toml:"page_delay_ms"`   // Before each listing page load
	ItemDelayMS   int `toml:"item_delay_ms"`   // Between item scrapes
	SettleMS      int `toml:"settle_ms"`       // After a detail page navigation
	ClickSettleMS int `toml:"click_settle_ms"` // After activating the difficulty toggle
	TimeoutMS     int `toml:"timeout_ms"`      // Per navigation

	MaxPages       int    `toml:"max_pages"`   // Safety cap on numeric pagination
	MaxScrolls     int    `toml:"max_scrolls"` // Safety cap on infinite scroll
	Limit          int    `toml:"limit"`       // Max items to scrape per run, 0 = all
	MinNotesLength int    `toml:"min_notes_length"`
	UserAgent      string `toml:"user_agent"`
	Headful        bool   `toml:"headful"`
	Browserless    bool   `toml:"browserless"` // Fetch pages over plain HTTP; scripts never run

	Selectors SelectorConfig `toml:"selectors"`
}

// DefaultCollectorConfig returns hard-coded defaults matching the target site
func DefaultCollectorConfig() *CollectorConfig {
	return &CollectorConfig{
		BaseURL:        "https://playpianosheets.com",
		ListingPath:    "/category/all",
		Listing:        ListingPages,
		Difficulty:     "Hard",
		CleanMode:      CleanLines,
		Sink:           SinkCatalog,
		OutputDir:      "sheets",
		PageDelayMS:    2000,
		ItemDelayMS:    2000,
		SettleMS:       3000,
		ClickSettleMS:  1000,
		TimeoutMS:      30000,
		MaxPages:       200,
		MaxScrolls:     100,
		MinNotesLength: 50,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		Selectors: SelectorConfig{
			Links:     `a[href*="/sheets/"]`,
			Title:     []string{"h3", ".title"},
			Artist:    []string{"p", ".artist"},
			Thumbnail: "img[src]",
			Next:      `a[rel="next"]`,
			Notes:     []string{"div.space-y-4", `div[class*="space-y"]`, "pre", "code", ".sheet-content"},
			Category:  `a[href*="/category/"]`,
		},
	}
}

// PageDelay returns the pause before a listing page load
func (c *CollectorConfig) PageDelay() time.Duration { return ms(c.PageDelayMS) }

// ItemDelay returns the pause between item scrapes
func (c *CollectorConfig) ItemDelay() time.Duration { return ms(c.ItemDelayMS) }

// Settle returns the wait after a detail page navigation
func (c *CollectorConfig) Settle() time.Duration { return ms(c.SettleMS) }

// ClickSettle returns the wait after clicking the difficulty toggle
func (c *CollectorConfig) ClickSettle() time.Duration { return ms(c.ClickSettleMS) }

// Timeout returns the per-navigation timeout
func (c *CollectorConfig) Timeout() time.Duration { return ms(c.TimeoutMS) }

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// ListingURL returns the absolute URL of listing page n (1-based)
func (c *CollectorConfig) ListingURL(page int) string {
	u := strings.TrimRight(c.BaseURL, "/") + c.ListingPath
	if page > 1 {
		u += fmt.Sprintf("/page/%d", page)
	}
	return u
}

// Validate checks enumerated values
func (c *CollectorConfig) Validate() error {
	switch c.Listing {
	case ListingPages, ListingScroll, ListingStatic:
	default:
		return fmt.Errorf("unknown listing strategy %q", c.Listing)
	}
	switch c.CleanMode {
	case CleanLines, CleanCompact:
	default:
		return fmt.Errorf("unknown clean mode %q", c.CleanMode)
	}
	switch c.Sink {
	case SinkCatalog, SinkFiles, SinkLocal:
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	if len(c.Selectors.Notes) == 0 {
		return fmt.Errorf("at least one notes selector is required")
	}
	if c.Browserless && c.Listing == ListingScroll {
		return fmt.Errorf("listing strategy %q needs a browser", c.Listing)
	}
	return nil
}

// LoadCollectorConfig merges, in increasing priority: defaults, the TOML file
// at path, and its ".local" sibling (collector.toml -> collector.local.toml).
// With an empty path the well-known locations are searched. Missing files are
// not an error.
func LoadCollectorConfig(path string) (*CollectorConfig, error) {
	cfg := DefaultCollectorConfig()

	if path == "" {
		for _, p := range candidateCollectorConfigPaths() {
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				path = p
				break
			}
		}
	}
	if path == "" {
		return cfg, cfg.Validate()
	}

	for _, p := range []string{path, localVariant(path)} {
		fileCfg, err := loadCollectorConfigFromPath(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read collector config %s: %w", p, err)
		}
		if fileCfg == nil {
			continue
		}
		if err := mergo.Merge(cfg, *fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge collector config %s: %w", p, err)
		}
		slog.Info("Loaded collector config", "path", p)
	}

	return cfg, cfg.Validate()
}

func loadCollectorConfigFromPath(path string) (*CollectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var cfg CollectorConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// localVariant returns name.local.ext for name.ext
func localVariant(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// candidateCollectorConfigPaths returns common locations to auto-discover the collector config
func candidateCollectorConfigPaths() []string {
	paths := []string{
		"collector.toml",
		filepath.Join("config", "collector.toml"),
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "pianosheets", "collector.toml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", "pianosheets", "collector.toml"))
	}
	return paths
}
