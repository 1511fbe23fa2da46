// Package main provides the justabill command line: bill ingestion, group backfill,
// offline sectionizing, the summarization worker and database migrations.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/justabill/internal/config"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app holds what every command needs once the configuration has been loaded.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "justabill",
		Short:         "Bill ingestion and summarization",
		Long:          "justabill ingests U.S. federal bills from congress.gov, splits their text into sections and summarizes each section.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (yaml, json or toml); environment variables override it")

	root.AddCommand(
		newIngestCmd(a),
		newBackfillGroupsCmd(a),
		newSyncRecentCmd(a),
		newSectionizeCmd(a),
		newSummarizeWorkerCmd(a),
		newResummarizeCmd(a),
		newMigrateCmd(a),
	)
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
