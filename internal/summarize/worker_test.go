package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/config"
	"github.com/jonathan/justabill/internal/llm"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/jonathan/justabill/internal/queue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T, store *fakeStore, stream *fakeStream, scheduler *fakeScheduler, summarizer llm.Summarizer) (*Worker, *observability.Metrics) {
	t.Helper()
	metrics, err := observability.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	cfg := &config.SummaryConfig{MaxAttempts: 3, RetryBackoff: time.Minute}
	return NewWorker(store, stream, scheduler, summarizer, cfg, metrics, nil), metrics
}

func TestHandle_Success(t *testing.T) {
	section := testSection(uuid.New(), 0)
	store := newFakeStore(section)
	summarizer := &fakeSummarizer{}
	w, metrics := newTestWorker(t, store, &fakeStream{}, &fakeScheduler{}, summarizer)

	require.NoError(t, w.Handle(context.Background(), message("1-0", section.ID, 0)))

	require.Len(t, summarizer.calls, 1)
	assert.Equal(t, llm.SectionInput{SectionKey: "SEC. 1", Heading: "SHORT TITLE", Text: section.Text}, summarizer.calls[0])

	saved := store.saved[section.ID]
	assert.JSONEq(t, `{"plain_summary_bullets":["This section names the Act."],"key_terms":[],"who_it_affects":[],"uncertainties":[]}`, string(saved.Summary))
	assert.JSONEq(t, `["may be cited as"]`, string(saved.Quotes))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Summaries.WithLabelValues(ResultOK)))
}

func TestHandle_FailureSchedulesRetryWithBackoff(t *testing.T) {
	tests := []struct {
		attempt   int
		wantDelay time.Duration
	}{
		{0, time.Minute},
		{1, 2 * time.Minute},
	}

	for _, tt := range tests {
		section := testSection(uuid.New(), 0)
		store := newFakeStore(section)
		scheduler := &fakeScheduler{}
		w, metrics := newTestWorker(t, store, &fakeStream{}, scheduler, &fakeSummarizer{results: []error{errBoom}})

		require.NoError(t, w.Handle(context.Background(), message("1-0", section.ID, tt.attempt)))

		var doc map[string][]string
		require.NoError(t, json.Unmarshal(store.saved[section.ID].Summary, &doc))
		assert.Equal(t, []string{"Error generating summary: boom"}, doc["plain_summary_bullets"])
		assert.Equal(t, []string{"Summary generation failed"}, doc["uncertainties"])
		assert.JSONEq(t, `[]`, string(store.saved[section.ID].Quotes))

		require.Len(t, scheduler.scheduled, 1)
		assert.Equal(t, tt.wantDelay, scheduler.scheduled[0].Delay)
		assert.Equal(t, tt.attempt+1, scheduler.scheduled[0].Envelope.Attempt)
		payload, err := scheduler.scheduled[0].Envelope.Summarize()
		require.NoError(t, err)
		assert.Equal(t, section.ID, payload.SectionID)
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Summaries.WithLabelValues(ResultRetry)))
	}
}

func TestHandle_LastAttemptFails(t *testing.T) {
	section := testSection(uuid.New(), 0)
	store := newFakeStore(section)
	scheduler := &fakeScheduler{}
	w, metrics := newTestWorker(t, store, &fakeStream{}, scheduler, &fakeSummarizer{results: []error{errBoom}})

	require.NoError(t, w.Handle(context.Background(), message("1-0", section.ID, 2)))

	assert.Empty(t, scheduler.scheduled)
	assert.Contains(t, string(store.saved[section.ID].Summary), "Error generating summary")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Summaries.WithLabelValues(ResultFailed)))
}

func TestHandle_PermanentProviderErrorIsNotRetried(t *testing.T) {
	section := testSection(uuid.New(), 0)
	scheduler := &fakeScheduler{}
	unauthorized := &llm.APIError{Provider: llm.ProviderOpenAI, StatusCode: http.StatusUnauthorized}
	w, _ := newTestWorker(t, newFakeStore(section), &fakeStream{}, scheduler, &fakeSummarizer{results: []error{unauthorized}})

	require.NoError(t, w.Handle(context.Background(), message("1-0", section.ID, 0)))
	assert.Empty(t, scheduler.scheduled)
}

func TestHandle_MissingSectionIsDropped(t *testing.T) {
	summarizer := &fakeSummarizer{}
	w, metrics := newTestWorker(t, newFakeStore(), &fakeStream{}, &fakeScheduler{}, summarizer)

	require.NoError(t, w.Handle(context.Background(), message("1-0", uuid.New(), 0)))

	assert.Empty(t, summarizer.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Summaries.WithLabelValues(ResultFailed)))
}

func TestHandle_InvalidPayloadIsDropped(t *testing.T) {
	summarizer := &fakeSummarizer{}
	w, _ := newTestWorker(t, newFakeStore(), &fakeStream{}, &fakeScheduler{}, summarizer)

	msg := queue.Message{ID: "1-0", Envelope: queue.Envelope{EventType: queue.EventSummarizeSection, Data: json.RawMessage(`{}`)}}
	require.NoError(t, w.Handle(context.Background(), msg))
	assert.Empty(t, summarizer.calls)
}

func TestHandle_StoreErrorsAreReturned(t *testing.T) {
	section := testSection(uuid.New(), 0)

	store := newFakeStore(section)
	store.getErr = errBoom
	w, _ := newTestWorker(t, store, &fakeStream{}, &fakeScheduler{}, &fakeSummarizer{})
	assert.ErrorIs(t, w.Handle(context.Background(), message("1-0", section.ID, 0)), errBoom)

	store = newFakeStore(section)
	store.saveErr = errBoom
	w, _ = newTestWorker(t, store, &fakeStream{}, &fakeScheduler{}, &fakeSummarizer{})
	assert.ErrorIs(t, w.Handle(context.Background(), message("1-0", section.ID, 0)), errBoom)
}

func TestRun_AcksHandledMessagesAndStops(t *testing.T) {
	ok := testSection(uuid.New(), 0)
	broken := testSection(uuid.New(), 1)
	store := newFakeStore(ok, broken)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := &fakeStream{
		batches: [][]queue.Message{
			{message("1-0", ok.ID, 0)},
			{message("2-0", uuid.New(), 0)},
		},
		cancel: cancel,
	}
	scheduler := &fakeScheduler{}
	w, metrics := newTestWorker(t, store, stream, scheduler, &fakeSummarizer{})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.Equal(t, []string{"1-0", "2-0"}, stream.acked)
	assert.GreaterOrEqual(t, scheduler.promoted, 2)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Summaries.WithLabelValues(ResultOK)))
}

func TestRun_UnhandledMessagesAreNotAcked(t *testing.T) {
	section := testSection(uuid.New(), 0)
	store := newFakeStore(section)
	store.getErr = errBoom

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := &fakeStream{batches: [][]queue.Message{{message("1-0", section.ID, 0)}}, cancel: cancel}
	w, _ := newTestWorker(t, store, stream, &fakeScheduler{}, &fakeSummarizer{})

	require.NoError(t, w.Run(ctx))
	assert.Empty(t, stream.acked)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 60*time.Second, Backoff(60*time.Second, 0))
	assert.Equal(t, 120*time.Second, Backoff(60*time.Second, 1))
	assert.Equal(t, 240*time.Second, Backoff(60*time.Second, 2))
	assert.Equal(t, 60*time.Second, Backoff(60*time.Second, -1))
}
