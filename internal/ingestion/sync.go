package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonathan/justabill/internal/congress"
	"github.com/jonathan/justabill/internal/status"
	"golang.org/x/sync/errgroup"
)

// DefaultSyncLimit is the number of recently updated bills listed by SyncRecent.
const DefaultSyncLimit = 50

// DefaultSyncConcurrency bounds the bills ingested in parallel by SyncRecent.
const DefaultSyncConcurrency = 4

// Lister lists recently updated bills.
type Lister interface {
	GetRecentBills(ctx context.Context, limit, offset int) ([]congress.BillRef, error)
}

// SyncOptions configures SyncRecent.
type SyncOptions struct {
	Limit       int
	Offset      int
	Concurrency int
}

// SyncReport counts the outcome of every listed bill.
type SyncReport struct {
	Listed    int `json:"listed"`
	Ingested  int `json:"ingested"`
	Unchanged int `json:"unchanged"`
	Partial   int `json:"partial"`
	Skipped   int `json:"skipped"`
	NotFound  int `json:"not_found"`
	Failed    int `json:"failed"`
}

// SyncRecent ingests the most recently updated bills. Per-bill failures are logged and
// counted; only a failure to list bills is returned. Retrying is left to the caller.
func (i *Ingester) SyncRecent(ctx context.Context, lister Lister, opts SyncOptions) (*SyncReport, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSyncLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultSyncConcurrency
	}

	refs, err := lister.GetRecentBills(ctx, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent bills: %w", err)
	}

	report := &SyncReport{Listed: len(refs)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for _, ref := range refs {
		g.Go(func() error {
			id, err := ref.Identity()
			if err != nil {
				i.logger.Warn("skipping unrecognized bill", "congress", ref.Congress, "type", ref.Type, "number", ref.Number, "error", err)
				mu.Lock()
				report.Failed++
				mu.Unlock()
				return nil
			}

			result, err := i.Ingest(ctx, Request{Identity: id})

			mu.Lock()
			defer mu.Unlock()
			var introduced *status.IntroducedOnlyError
			switch {
			case errors.As(err, &introduced):
				report.Skipped++
			case errors.Is(err, ErrNotFound):
				report.NotFound++
			case err != nil:
				report.Failed++
				i.logger.Error("failed to ingest bill", "bill", id.String(), "error", err)
			case result.Outcome == OutcomeUnchanged:
				report.Unchanged++
			case result.Outcome == OutcomePartial:
				report.Partial++
			default:
				report.Ingested++
			}
			return nil
		})
	}
	_ = g.Wait()

	i.logger.Info("sync complete",
		"listed", report.Listed, "ingested", report.Ingested, "unchanged", report.Unchanged,
		"partial", report.Partial, "skipped", report.Skipped, "not_found", report.NotFound, "failed", report.Failed)
	return report, nil
}
