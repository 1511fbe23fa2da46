// Package ingestion fetches a bill from the legislative source, classifies its status,
// sectionizes its text and hands the result to the store and the summarization queue.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/congress"
	"github.com/jonathan/justabill/internal/db"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/jonathan/justabill/internal/sectioning"
	"github.com/jonathan/justabill/internal/status"
	"github.com/jonathan/justabill/internal/types"
	"golang.org/x/sync/errgroup"
)

// Source is the legislative data source read during ingestion.
type Source interface {
	GetBill(ctx context.Context, id types.BillIdentity) (*congress.BillMetadata, error)
	GetActions(ctx context.Context, id types.BillIdentity) ([]congress.Action, error)
	GetTextVersions(ctx context.Context, id types.BillIdentity) ([]congress.TextVersion, error)
	FetchText(ctx context.Context, r types.Rendition) (string, error)
}

// Store persists bills, versions and sections.
type Store interface {
	UpsertBill(ctx context.Context, input *db.BillUpsertInput) (*db.Bill, error)
	LatestVersion(ctx context.Context, billID uuid.UUID) (*db.BillVersion, error)
	CountSections(ctx context.Context, billID uuid.UUID) (int, error)
	ReplaceSections(ctx context.Context, billID uuid.UUID, version *db.VersionInput, sections []types.Section) ([]uuid.UUID, error)
}

// Notifier receives the IDs of newly created sections for summarization.
type Notifier interface {
	Enqueue(ctx context.Context, sectionIDs []uuid.UUID) error
}

// Outcome is the terminal state of a successful ingestion.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomePartial   Outcome = "partial"
)

// Partial outcome messages.
const (
	MessageNoTextVersions = "no text versions available"
	MessageNoSuitableText = "no suitable text format"
	MessageEmptyText      = "extracted text is empty"
)

// Request identifies the bill to ingest.
// ForceStatus overrides the classified status and bypasses the introduced-only gate.
type Request struct {
	Identity    types.BillIdentity `json:"identity"`
	ForceStatus *types.Status      `json:"force_status,omitempty"`
}

// Result summarizes one ingestion.
type Result struct {
	BillID          uuid.UUID          `json:"bill_id"`
	Bill            types.BillIdentity `json:"bill"`
	Title           string             `json:"title,omitempty"`
	Status          types.Status       `json:"status"`
	Outcome         Outcome            `json:"outcome"`
	Message         string             `json:"message,omitempty"`
	SectionsCreated int                `json:"sections_created"`
	ContentHash     string             `json:"content_hash,omitempty"`
	VersionLabel    string             `json:"version_label,omitempty"`
	SectionIDs      []uuid.UUID        `json:"section_ids,omitempty"`
}

// Ingester runs the ingestion pipeline for one bill at a time. It holds no per-bill state
// and may be shared between goroutines.
type Ingester struct {
	source   Source
	store    Store
	notifier Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewIngester creates an Ingester. notifier and metrics may be nil.
func NewIngester(source Source, store Store, notifier Notifier, metrics *observability.Metrics, logger *slog.Logger) *Ingester {
	return &Ingester{
		source:   source,
		store:    store,
		notifier: notifier,
		metrics:  metrics,
		logger:   observability.OrDefault(logger),
	}
}

// Ingest fetches, classifies and sectionizes one bill.
//
// Fetch and extraction failures abort before anything is written. A bill without usable
// text is still upserted and reported as OutcomePartial. Text whose hash matches the
// latest stored version is reported as OutcomeUnchanged with no version or section writes.
func (i *Ingester) Ingest(ctx context.Context, req Request) (*Result, error) {
	req.Identity = types.NewBillIdentity(req.Identity.Congress, req.Identity.BillType, req.Identity.BillNumber)
	if err := req.Identity.Validate(); err != nil {
		return nil, &RequestError{Bill: req.Identity, Cause: err}
	}

	id := req.Identity
	logger := i.logger.With("bill", id.String())
	logger.Info("ingesting bill")

	meta, err := i.source.GetBill(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bill metadata: %w", err)
	}

	var actions []congress.Action
	var versions []congress.TextVersion
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if actions, err = i.source.GetActions(gctx, id); err != nil {
			return fmt.Errorf("failed to fetch actions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if versions, err = i.source.GetTextVersions(gctx, id); err != nil {
			return fmt.Errorf("failed to fetch text versions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	classified := status.Classify(meta.LatestEvent(), congress.ToActionEvents(actions))
	effective, err := status.Gate(id, classified, req.ForceStatus)
	if err != nil {
		logger.Info("bill rejected", "status", classified)
		return nil, err
	}
	logger = logger.With("status", string(effective))

	result := &Result{Bill: id, Title: meta.Title, Status: effective}

	rendition, ok := congress.SelectRendition(versions)
	if !ok {
		message := MessageNoSuitableText
		if len(versions) == 0 {
			message = MessageNoTextVersions
		}
		return i.finishPartial(ctx, logger, meta, req, result, message)
	}

	text, err := i.source.FetchText(ctx, rendition)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bill text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return i.finishPartial(ctx, logger, meta, req, result, MessageEmptyText)
	}
	extracted := types.NewExtractedText(text)
	result.ContentHash = extracted.Hash
	result.VersionLabel = rendition.Label

	bill, err := i.store.UpsertBill(ctx, billInput(meta, id, effective))
	if err != nil {
		return nil, err
	}
	result.BillID = bill.ID

	latest, err := i.store.LatestVersion(ctx, bill.ID)
	if err != nil {
		return nil, err
	}
	var lastHash string
	if latest != nil {
		lastHash = latest.ContentHash
	}

	if change := DetectChange(extracted.Text, lastHash, latest != nil); !change.Changed {
		return i.finishUnchanged(ctx, logger, result)
	}

	sections := sectioning.Sectionize(extracted.Text)
	sectionIDs, err := i.store.ReplaceSections(ctx, bill.ID, &db.VersionInput{
		Label:       rendition.Label,
		SourceURL:   rendition.SourceURL,
		ContentHash: extracted.Hash,
		RawText:     db.TruncateRunes(extracted.Text, db.MaxRawTextRunes),
	}, sections)
	if errors.Is(err, db.ErrUnchanged) {
		// A concurrent ingestion stored the same text first.
		return i.finishUnchanged(ctx, logger, result)
	}
	if err != nil {
		return nil, err
	}

	result.Outcome = OutcomeSuccess
	result.SectionsCreated = len(sectionIDs)
	result.SectionIDs = sectionIDs
	i.metrics.IngestionDone(string(OutcomeSuccess), len(sectionIDs))
	logger.Info("bill ingested", "outcome", string(OutcomeSuccess), "sections", len(sectionIDs), "version", rendition.Label)

	i.notify(ctx, logger, sectionIDs)
	return result, nil
}

// finishUnchanged reports the stored text as current, with the existing section count.
func (i *Ingester) finishUnchanged(ctx context.Context, logger *slog.Logger, result *Result) (*Result, error) {
	count, err := i.store.CountSections(ctx, result.BillID)
	if err != nil {
		return nil, err
	}
	result.Outcome = OutcomeUnchanged
	result.SectionsCreated = count
	result.Message = "text unchanged since last version"
	i.metrics.IngestionDone(string(OutcomeUnchanged), 0)
	logger.Info("bill text unchanged", "outcome", string(OutcomeUnchanged), "sections", count)
	return result, nil
}

// finishPartial upserts the bill metadata and reports a partial outcome with zero sections.
func (i *Ingester) finishPartial(ctx context.Context, logger *slog.Logger, meta *congress.BillMetadata, req Request, result *Result, message string) (*Result, error) {
	bill, err := i.store.UpsertBill(ctx, billInput(meta, req.Identity, result.Status))
	if err != nil {
		return nil, err
	}
	result.BillID = bill.ID
	result.Outcome = OutcomePartial
	result.Message = message
	i.metrics.IngestionDone(string(OutcomePartial), 0)
	logger.Warn("bill ingested without text", "outcome", string(OutcomePartial), "reason", message)
	return result, nil
}

func (i *Ingester) notify(ctx context.Context, logger *slog.Logger, sectionIDs []uuid.UUID) {
	if i.notifier == nil || len(sectionIDs) == 0 {
		return
	}
	if err := i.notifier.Enqueue(ctx, sectionIDs); err != nil {
		logger.Error("failed to enqueue sections for summarization", "error", err, "sections", len(sectionIDs))
	}
}

func billInput(meta *congress.BillMetadata, id types.BillIdentity, st types.Status) *db.BillUpsertInput {
	input := &db.BillUpsertInput{
		Identity:             id,
		Title:                meta.Title,
		IntroducedDate:       parseDate(meta.IntroducedDate),
		Status:               st,
		Sponsor:              meta.PrimarySponsor(),
		SourceURLs:           map[string]string{db.SourceURLCongressGov: id.CongressGovURL()},
		RawMetadata:          meta.Raw,
		IsLawImpactCandidate: id.IsLawImpactCandidate(),
	}
	if meta.LatestAction != nil {
		input.LatestActionDate = parseDate(meta.LatestAction.ActionDate)
	}
	return input
}

// parseDate reads the YYYY-MM-DD prefix of a source date. Unparseable dates are dropped.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if len(s) < len(time.DateOnly) {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s[:len(time.DateOnly)])
	if err != nil {
		return nil
	}
	return &t
}

// IsTerminal reports whether err should not be retried by the caller.
func IsTerminal(err error) bool {
	var introduced *status.IntroducedOnlyError
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidRequest) || errors.As(err, &introduced)
}
