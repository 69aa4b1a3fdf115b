package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	jsonLogs bool
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "collector",
	Short:         "collector harvests piano sheets and maintains the catalog repository.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initSlog(cmd.ErrOrStderr(), jsonLogs, verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write JSON log lines instead of colored console output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// ExecuteContext runs the CLI and returns the process exit code
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func initSlog(w io.Writer, asJSON, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}
	slog.SetDefault(slog.New(handler))
}
