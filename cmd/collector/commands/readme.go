package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"pianosheets/internal/services"
)

func init() {
	rootCmd.AddCommand(readmeCmd)
}

var readmeCmd = &cobra.Command{
	Use:   "readme",
	Short: "Regenerates the README summary of the catalog repository.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := openEnvironment(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if !env.cfg.GitHubConfigured() {
			return services.ErrNotConfigured
		}

		songs, err := env.catalog().All(ctx)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		if err := env.readme().Regenerate(ctx, songs); err != nil {
			return fmt.Errorf("failed to regenerate README: %w", err)
		}

		slog.Info("README regenerated", "songs", len(songs), "repository", env.store.Repository())
		return nil
	},
}
