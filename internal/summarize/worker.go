// Package summarize runs the section summarization worker and re-queues bills for summarization.
package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/config"
	"github.com/jonathan/justabill/internal/db"
	"github.com/jonathan/justabill/internal/llm"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/jonathan/justabill/internal/queue"
)

// Summary results recorded in metrics.
const (
	ResultOK     = "ok"
	ResultRetry  = "retry"
	ResultFailed = "failed"
)

const (
	defaultBlock     = 5 * time.Second
	defaultBatchSize = 16
	// claimIdle is how long a delivered message may stay unacknowledged before
	// another worker takes it over.
	claimIdle = 10 * time.Minute
)

// Store loads sections and saves their summaries.
type Store interface {
	GetSection(ctx context.Context, id uuid.UUID) (*db.Section, error)
	SaveSectionSummary(ctx context.Context, id uuid.UUID, summary, evidenceQuotes json.RawMessage) error
}

// Stream delivers summarize messages to this worker.
type Stream interface {
	Read(ctx context.Context, opts ...queue.ConsumerOption) ([]queue.Message, error)
	Ack(ctx context.Context, ids ...string) error
	AutoClaim(ctx context.Context, minIdle time.Duration, start string, count int64) ([]queue.Message, string, error)
}

// Scheduler holds retries until their backoff has elapsed.
type Scheduler interface {
	PublishAfter(ctx context.Context, envelope queue.Envelope, delay time.Duration) error
	PromoteDue(ctx context.Context, now time.Time) (int, error)
}

// Worker consumes summarize messages, calls the summarizer and stores the result.
//
// A failed attempt stores an error summary so the section never stays blank, then
// schedules the next attempt after RetryBackoff * 2^attempt until MaxAttempts
// deliveries have been made. Messages whose handling hits a store error are left
// unacknowledged and are reclaimed later.
type Worker struct {
	store       Store
	stream      Stream
	scheduler   Scheduler
	summarizer  llm.Summarizer
	metrics     *observability.Metrics
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
	block       time.Duration
	claimCursor string
	now         func() time.Time
}

// NewWorker creates a Worker. metrics and logger may be nil.
func NewWorker(store Store, stream Stream, scheduler Scheduler, summarizer llm.Summarizer, cfg *config.SummaryConfig, metrics *observability.Metrics, logger *slog.Logger) *Worker {
	return &Worker{
		store:       store,
		stream:      stream,
		scheduler:   scheduler,
		summarizer:  summarizer,
		metrics:     metrics,
		logger:      observability.OrDefault(logger),
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.RetryBackoff,
		block:       defaultBlock,
		claimCursor: "0-0",
		now:         time.Now,
	}
}

// Run processes messages until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("summarize worker starting", slog.Int("max_attempts", w.maxAttempts))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("summarize worker stopping")
			return nil
		default:
		}

		if n, err := w.scheduler.PromoteDue(ctx, w.now()); err != nil {
			w.logger.Warn("failed to promote delayed retries", slog.Any("error", err))
		} else if n > 0 {
			w.logger.Debug("promoted delayed retries", slog.Int("count", n))
		}

		w.reclaim(ctx)

		msgs, err := w.stream.Read(ctx, queue.WithBlock(w.block), queue.WithCount(defaultBatchSize))
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("failed to read stream", slog.Any("error", err))
			sleep(ctx, time.Second)
			continue
		}
		w.process(ctx, msgs)
	}
}

// reclaim takes over one batch of messages abandoned by other consumers.
func (w *Worker) reclaim(ctx context.Context) {
	msgs, next, err := w.stream.AutoClaim(ctx, claimIdle, w.claimCursor, defaultBatchSize)
	if err != nil {
		w.logger.Warn("failed to reclaim pending messages", slog.Any("error", err))
		return
	}
	w.claimCursor = next
	if w.claimCursor == "" {
		w.claimCursor = "0-0"
	}
	if len(msgs) > 0 {
		w.logger.Info("reclaimed pending messages", slog.Int("count", len(msgs)))
		w.process(ctx, msgs)
	}
}

func (w *Worker) process(ctx context.Context, msgs []queue.Message) {
	for _, msg := range msgs {
		if err := w.Handle(ctx, msg); err != nil {
			w.logger.Error("failed to handle summarize message",
				slog.String("message_id", msg.ID),
				slog.Any("error", err))
			continue
		}
		if err := w.stream.Ack(ctx, msg.ID); err != nil {
			w.logger.Warn("failed to ack message", slog.String("message_id", msg.ID), slog.Any("error", err))
		}
	}
}

// Handle summarizes the section named by one message. A nil error means the message
// is finished and may be acknowledged; summarizer failures are handled here and
// never returned.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	payload, err := msg.Envelope.Summarize()
	if err != nil {
		w.logger.Warn("dropping invalid summarize message",
			slog.String("message_id", msg.ID),
			slog.Any("error", err))
		return nil
	}
	attempt := msg.Envelope.Attempt
	logger := w.logger.With(slog.String("section_id", payload.SectionID.String()), slog.Int("attempt", attempt))

	section, err := w.store.GetSection(ctx, payload.SectionID)
	if err != nil {
		return fmt.Errorf("failed to load section %s: %w", payload.SectionID, err)
	}
	if section == nil {
		logger.Warn("section not found; dropping message")
		w.metrics.SummaryDone(ResultFailed)
		return nil
	}

	summary, err := w.summarizer.Summarize(ctx, llm.SectionInput{
		SectionKey: section.SectionKey,
		Heading:    section.Heading,
		Text:       section.Text,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return w.fail(ctx, logger, section.ID, attempt, err)
	}

	if err := w.save(ctx, section.ID, summary); err != nil {
		return err
	}
	w.metrics.SummaryDone(ResultOK)
	logger.Info("section summarized", slog.Int("bullets", len(summary.PlainSummaryBullets)))
	return nil
}

// fail stores an error summary and schedules the next attempt when one remains.
func (w *Worker) fail(ctx context.Context, logger *slog.Logger, sectionID uuid.UUID, attempt int, cause error) error {
	if err := w.save(ctx, sectionID, llm.ErrorSummary(cause)); err != nil {
		return err
	}

	if attempt+1 >= w.maxAttempts || !retryable(cause) {
		w.metrics.SummaryDone(ResultFailed)
		logger.Error("summarization failed", slog.Any("error", cause))
		return nil
	}

	env, err := queue.NewSummarizeEnvelope(sectionID, attempt+1)
	if err != nil {
		return err
	}
	delay := Backoff(w.backoff, attempt)
	if err := w.scheduler.PublishAfter(ctx, env, delay); err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	w.metrics.SummaryDone(ResultRetry)
	logger.Warn("summarization failed; retry scheduled",
		slog.Duration("delay", delay),
		slog.Any("error", cause))
	return nil
}

func (w *Worker) save(ctx context.Context, sectionID uuid.UUID, summary *llm.Summary) error {
	doc, err := summary.Document()
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	quotes, err := summary.Quotes()
	if err != nil {
		return fmt.Errorf("failed to encode evidence quotes: %w", err)
	}
	if err := w.store.SaveSectionSummary(ctx, sectionID, doc, quotes); err != nil {
		return fmt.Errorf("failed to save summary for section %s: %w", sectionID, err)
	}
	return nil
}

// Backoff returns the delay before retrying after the given zero-based attempt.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return base << attempt
}

// retryable reports whether another attempt could succeed. Provider rejections such as
// a bad API key are final.
func retryable(err error) bool {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
