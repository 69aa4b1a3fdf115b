package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pianosheets/internal/auth"
)

var tokenFlags struct {
	ttl     time.Duration
	subject string
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", time.Hour, "How long the token stays valid")
	tokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "collector", "Subject recorded in the token")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token [--ttl 1h]",
	Short: "Prints a bearer token for the admin endpoints, signed with SCRAPER_KEY.",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := auth.IssueToken(os.Getenv("SCRAPER_KEY"), tokenFlags.subject, tokenFlags.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
