package main

import (
	"fmt"

	"github.com/jonathan/justabill/internal/queue"
	"github.com/jonathan/justabill/internal/summarize"
	"github.com/spf13/cobra"
)

func newResummarizeCmd(a *app) *cobra.Command {
	var billID string

	cmd := &cobra.Command{
		Use:   "resummarize",
		Short: "Queue every section of a bill for summarization",
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

			client, err := a.openRedis(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			n, err := summarize.ResummarizeBill(ctx, store, queue.NewPublisher(client, a.cfg.Summary.Stream), id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Queued %d sections of bill %s for summarization\n", n, id)
			return err
		},
	}

	cmd.Flags().StringVar(&billID, "bill-id", "", "ID of the stored bill")
	_ = cmd.MarkFlagRequired("bill-id")
	return cmd
}
