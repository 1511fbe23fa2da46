package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/db"
	"github.com/jonathan/justabill/internal/fetch"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/jonathan/justabill/internal/sectioning"
	"github.com/jonathan/justabill/internal/types"
)

// ErrNoSourceURL is returned when the bill has no stored version to re-fetch text from.
var ErrNoSourceURL = errors.New("bill has no source URL to re-fetch text from")

// Store reads persisted sections and writes their grouping fields.
type Store interface {
	LatestVersion(ctx context.Context, billID uuid.UUID) (*db.BillVersion, error)
	ListSections(ctx context.Context, billID uuid.UUID) ([]db.Section, error)
	UpdateSectionGroups(ctx context.Context, updates []db.GroupUpdate) error
}

// TextSource fetches and extracts the text of a rendition.
type TextSource interface {
	FetchText(ctx context.Context, r types.Rendition) (string, error)
}

// Backfiller runs group backfills for one bill at a time.
type Backfiller struct {
	store   Store
	source  TextSource
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates a Backfiller. metrics may be nil.
func New(store Store, source TextSource, metrics *observability.Metrics, logger *slog.Logger) *Backfiller {
	return &Backfiller{
		store:   store,
		source:  source,
		metrics: metrics,
		logger:  observability.OrDefault(logger),
	}
}

// Run re-fetches the text of the bill's latest version, re-sectionizes it and writes
// division, title and title heading onto the matching persisted sections. Sections are
// never created, deleted or renumbered.
func (b *Backfiller) Run(ctx context.Context, billID uuid.UUID) (*Report, error) {
	logger := b.logger.With("bill_id", billID.String())

	version, err := b.store.LatestVersion(ctx, billID)
	if err != nil {
		return nil, err
	}
	if version == nil || version.SourceURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSourceURL, billID)
	}

	persisted, err := b.store.ListSections(ctx, billID)
	if err != nil {
		return nil, err
	}
	if len(persisted) == 0 {
		logger.Info("no persisted sections to backfill")
		return &Report{}, nil
	}

	text, err := b.source.FetchText(ctx, types.Rendition{
		Label:       version.VersionLabel,
		SourceURL:   version.SourceURL,
		ContentType: fetch.ContentTypeFromPath(version.SourceURL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to re-fetch bill text: %w", err)
	}

	result := Match(sectioning.Sectionize(text), persisted)
	if err := b.store.UpdateSectionGroups(ctx, result.Updates); err != nil {
		return nil, err
	}

	for _, s := range result.Missing {
		logger.Debug("no match for persisted section", "section_key", s.SectionKey, "order_index", s.OrderIndex)
	}
	b.metrics.BackfillDone(result.Report.Updated, result.Report.Missing)
	logger.Info("group backfill complete",
		"total", result.Report.Total, "updated", result.Report.Updated, "missing", result.Report.Missing)
	return &result.Report, nil
}
