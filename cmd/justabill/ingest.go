package main

import (
	"github.com/jonathan/justabill/internal/congress"
	"github.com/jonathan/justabill/internal/ingestion"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/jonathan/justabill/internal/types"
	"github.com/spf13/cobra"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		congressNum int
		billType    string
		billNumber  int
		forceStatus string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest one bill",
		Long:  "Fetch a bill from congress.gov, classify its status, sectionize its latest text and store it. New sections are queued for summarization when REDIS_URL is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := ingestion.Request{Identity: types.NewBillIdentity(congressNum, billType, billNumber)}
			if forceStatus != "" {
				st, err := types.ParseStatus(forceStatus)
				if err != nil {
					return err
				}
				req.ForceStatus = &st
			}

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

			metrics, flushMetrics, err := a.openMetrics("justabill_ingest")
			if err != nil {
				return err
			}
			defer flushMetrics()

			source := congress.NewClient(a.cfg, a.logger)
			ingester := ingestion.NewIngester(source, store, notifier, metrics, a.logger)

			result, err := ingester.Ingest(ctx, req)
			if err != nil {
				return err
			}

			if verbose {
				observability.NewPrinter(cmd.ErrOrStderr()).PrintIngestSummary(&observability.IngestSummary{
					Bill:            result.Bill,
					Title:           result.Title,
					Status:          result.Status,
					Outcome:         string(result.Outcome),
					Message:         result.Message,
					SectionsCreated: result.SectionsCreated,
				})
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVar(&congressNum, "congress", 0, "Congress number, e.g. 118")
	cmd.Flags().StringVar(&billType, "type", "", "Bill type: hr, s, hjres, sjres, hconres, sconres, hres or sres")
	cmd.Flags().IntVar(&billNumber, "number", 0, "Bill number")
	cmd.Flags().StringVar(&forceStatus, "force-status", "", "Override the classified status (bypasses the introduced-only gate)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print a formatted summary to stderr")

	_ = cmd.MarkFlagRequired("congress")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}
