package main

import (
	"github.com/jonathan/justabill/internal/backfill"
	"github.com/jonathan/justabill/internal/congress"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/spf13/cobra"
)

func newBackfillGroupsCmd(a *app) *cobra.Command {
	var (
		billID  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "backfill-groups",
		Short: "Retrofit division and title grouping onto a bill's stored sections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseBillID(billID)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			metrics, flushMetrics, err := a.openMetrics("justabill_backfill_groups")
			if err != nil {
				return err
			}
			defer flushMetrics()

			b := backfill.New(store, congress.NewClient(a.cfg, a.logger), metrics, a.logger)
			report, err := b.Run(ctx, id)
			if err != nil {
				return err
			}

			if verbose {
				observability.NewPrinter(cmd.ErrOrStderr()).PrintBackfillReport(report.Total, report.Updated, report.Missing)
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&billID, "bill-id", "", "ID of the stored bill")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print a formatted report to stderr")
	_ = cmd.MarkFlagRequired("bill-id")
	return cmd
}
