package summarize

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/db"
)

// ErrNoSections is returned when a bill has no persisted sections to summarize.
var ErrNoSections = errors.New("bill has no sections")

// SectionLister lists the persisted sections of a bill.
type SectionLister interface {
	ListSections(ctx context.Context, billID uuid.UUID) ([]db.Section, error)
}

// Enqueuer queues sections for summarization.
type Enqueuer interface {
	Enqueue(ctx context.Context, sectionIDs []uuid.UUID) error
}

// ResummarizeBill queues every section of a bill and returns how many were queued.
func ResummarizeBill(ctx context.Context, store SectionLister, queue Enqueuer, billID uuid.UUID) (int, error) {
	sections, err := store.ListSections(ctx, billID)
	if err != nil {
		return 0, fmt.Errorf("failed to list sections: %w", err)
	}
	if len(sections) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoSections, billID)
	}

	ids := make([]uuid.UUID, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	if err := queue.Enqueue(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}
