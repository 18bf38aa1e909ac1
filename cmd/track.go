// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/naka-gawa/release-stats/internal/config"
	"github.com/naka-gawa/release-stats/internal/gateway"
	"github.com/naka-gawa/release-stats/internal/storage"
	"github.com/naka-gawa/release-stats/internal/usecase"
	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Records today's download snapshot for every configured repository",
	Long: `Fetches all releases of every configured repository, tallies asset
download counts per file format, and upserts today's snapshot into the
repository's history file. On a repository's first-ever snapshot, historical
clone traffic is fetched (best effort) to seed the history.

A failure in one repository is logged and does not stop the others; the
command exits non-zero only when the configuration cannot be loaded.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		configPath, _ := cmd.InheritedFlags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		// The token is optional; without it the API allows far fewer
		// requests per hour but everything still works.
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			fmt.Fprintln(os.Stderr, "Warning: GITHUB_TOKEN is not set; requests are unauthenticated and rate limits are much lower.")
		}

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		store := storage.NewStore(cfg.DataDir(), logger)
		tracker := usecase.NewTracker(githubGateway, store, logger, os.Stdout)

		// Per-repository failures are already logged by the tracker and do
		// not affect the exit code.
		tracker.Track(ctx, cfg.Repos)
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
}
