package main

import (
	"github.com/jonathan/justabill/internal/congress"
	"github.com/jonathan/justabill/internal/ingestion"
	"github.com/spf13/cobra"
)

func newSyncRecentCmd(a *app) *cobra.Command {
	var opts ingestion.SyncOptions

	cmd := &cobra.Command{
		Use:   "sync-recent",
		Short: "Ingest the most recently updated bills",
		Long:  "List recently updated bills from congress.gov and ingest each one. Introduced-only and missing bills are counted, not retried.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			notifier, closeNotifier, err := a.openNotifier(ctx)
			if err != nil {
				return err
			}
			defer closeNotifier()

			metrics, flushMetrics, err := a.openMetrics("justabill_sync_recent")
			if err != nil {
				return err
			}
			defer flushMetrics()

			client := congress.NewClient(a.cfg, a.logger)
			ingester := ingestion.NewIngester(client, store, notifier, metrics, a.logger)

			report, err := ingester.SyncRecent(ctx, client, opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", ingestion.DefaultSyncLimit, "Number of bills to list")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Offset into the recently updated list")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", ingestion.DefaultSyncConcurrency, "Bills ingested in parallel")
	return cmd
}
