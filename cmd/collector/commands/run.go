package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pianosheets/internal/collector"
	"pianosheets/internal/config"
	"pianosheets/internal/services"
)

var errAborted = errors.New("collector run aborted")

var runFlags struct {
	configPath string
	sink       string
	dir        string
	listing    string
	difficulty string
	clean      string
	limit      int
	headful    bool
	noBrowser  bool
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.configPath, "config", "", "Collector TOML config (defaults to collector.toml discovery)")
	f.StringVar(&runFlags.sink, "sink", config.SinkCatalog, "Where records go: catalog, files or local")
	f.StringVar(&runFlags.dir, "dir", "sheets", "Root directory for the files and local sinks")
	f.StringVar(&runFlags.listing, "listing", config.ListingPages, "Listing strategy: pages, scroll or static")
	f.StringVar(&runFlags.difficulty, "difficulty", "Hard", "Difficulty toggle to activate on detail pages")
	f.StringVar(&runFlags.clean, "clean", config.CleanLines, "Notation cleanup: lines or compact")
	f.IntVar(&runFlags.limit, "limit", 0, "Scrape at most N new items (0 = all)")
	f.BoolVar(&runFlags.headful, "headful", false, "Show the browser window")
	f.BoolVar(&runFlags.noBrowser, "no-browser", false, "Fetch pages over plain HTTP without launching Chromium")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--sink catalog|files|local] [--limit N]",
	Short: "Crawls the listing and saves notation for every item not yet collected.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := openEnvironment(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		path := runFlags.configPath
		if path == "" {
			path = env.cfg.CollectorConfigPath
		}
		ccfg, err := config.LoadCollectorConfig(path)
		if err != nil {
			return err
		}
		if err := applyRunFlags(ccfg, cmd.Flags()); err != nil {
			return err
		}

		opts := collector.Options{
			Config: ccfg,
			Launch: launcherFor(ccfg),
			Runs:   env.runs(),
		}
		switch ccfg.Sink {
		case config.SinkLocal:
			opts.Sink = collector.NewLocalFileSink(ccfg.OutputDir)
		case config.SinkFiles:
			opts.Sink = collector.NewRemoteFileSink(env.store, ccfg.OutputDir)
			opts.Readme = env.readme()
		default:
			opts.Sink = collector.NewCatalogSink(env.catalog())
			opts.Readme = env.readme()
		}
		if ccfg.Sink != config.SinkLocal && !env.cfg.GitHubConfigured() {
			return fmt.Errorf("sink %q requires GITHUB_TOKEN: %w", ccfg.Sink, services.ErrNotConfigured)
		}

		summary, runErr := collector.New(opts).Run(ctx)
		printSummary(cmd.OutOrStdout(), summary)

		if runErr != nil {
			slog.Error("Collector run aborted", "run_id", summary.RunID, "error", runErr)
			return fmt.Errorf("%w: %v", errAborted, runErr)
		}
		return nil
	},
}

// applyRunFlags overrides file config with explicitly set flags
func applyRunFlags(cfg *config.CollectorConfig, flags *pflag.FlagSet) error {
	if flags.Changed("sink") {
		cfg.Sink = runFlags.sink
	}
	if flags.Changed("dir") {
		cfg.OutputDir = runFlags.dir
	}
	if flags.Changed("listing") {
		cfg.Listing = runFlags.listing
	}
	if flags.Changed("difficulty") {
		cfg.Difficulty = runFlags.difficulty
	}
	if flags.Changed("clean") {
		cfg.CleanMode = runFlags.clean
	}
	if flags.Changed("limit") {
		cfg.Limit = runFlags.limit
	}
	if flags.Changed("headful") {
		cfg.Headful = runFlags.headful
	}
	if flags.Changed("no-browser") {
		cfg.Browserless = runFlags.noBrowser
	}
	return cfg.Validate()
}

func launcherFor(cfg *config.CollectorConfig) collector.Launcher {
	if cfg.Browserless {
		return collector.NewStaticLauncher(cfg)
	}
	return collector.NewPlaywrightLauncher(cfg)
}
