// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/naka-gawa/release-stats/internal/config"
	"github.com/naka-gawa/release-stats/internal/storage"
	"github.com/naka-gawa/release-stats/internal/usecase"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarizes the recorded download history per repository",
	Long: `Reads the persisted history files of every configured repository and
prints the latest totals along with growth statistics computed over
consecutive snapshots. No network requests are made.`,
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags)
		if verbose {
			logger.SetOutput(os.Stderr)
		}

		configPath, _ := cmd.InheritedFlags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		store := storage.NewStore(cfg.DataDir(), logger)
		reporter := usecase.NewReporter(store, logger, os.Stdout)
		reporter.Report(cfg.Repos)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
