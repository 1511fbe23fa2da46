package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/db"
	"github.com/jonathan/justabill/internal/llm"
	"github.com/jonathan/justabill/internal/queue"
	"github.com/jonathan/justabill/internal/types"
)

var errBoom = errors.New("boom")

type savedSummary struct {
	Summary json.RawMessage
	Quotes  json.RawMessage
}

type fakeStore struct {
	sections map[uuid.UUID]*db.Section
	saved    map[uuid.UUID]savedSummary
	getErr   error
	saveErr  error
	listErr  error
}

func newFakeStore(sections ...*db.Section) *fakeStore {
	s := &fakeStore{sections: map[uuid.UUID]*db.Section{}, saved: map[uuid.UUID]savedSummary{}}
	for _, sec := range sections {
		s.sections[sec.ID] = sec
	}
	return s
}

func (s *fakeStore) GetSection(_ context.Context, id uuid.UUID) (*db.Section, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.sections[id], nil
}

func (s *fakeStore) SaveSectionSummary(_ context.Context, id uuid.UUID, summary, quotes json.RawMessage) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[id] = savedSummary{Summary: summary, Quotes: quotes}
	return nil
}

func (s *fakeStore) ListSections(_ context.Context, billID uuid.UUID) ([]db.Section, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []db.Section
	for _, sec := range s.sections {
		if sec.BillID == billID {
			out = append(out, *sec)
		}
	}
	return out, nil
}

type scheduled struct {
	Envelope queue.Envelope
	Delay    time.Duration
}

type fakeScheduler struct {
	scheduled  []scheduled
	promoteErr error
	promoted   int
}

func (s *fakeScheduler) PublishAfter(_ context.Context, env queue.Envelope, delay time.Duration) error {
	s.scheduled = append(s.scheduled, scheduled{Envelope: env, Delay: delay})
	return nil
}

func (s *fakeScheduler) PromoteDue(context.Context, time.Time) (int, error) {
	s.promoted++
	return 0, s.promoteErr
}

// fakeStream hands out its batches one Read at a time and cancels the run once they are drained.
type fakeStream struct {
	mu      sync.Mutex
	batches [][]queue.Message
	acked   []string
	cancel  context.CancelFunc
}

func (s *fakeStream) Read(context.Context, ...queue.ConsumerOption) ([]queue.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		if s.cancel != nil {
			s.cancel()
		}
		return nil, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func (s *fakeStream) Ack(_ context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked = append(s.acked, ids...)
	return nil
}

func (s *fakeStream) AutoClaim(context.Context, time.Duration, string, int64) ([]queue.Message, string, error) {
	return nil, "0-0", nil
}

type fakeSummarizer struct {
	results []error
	calls   []llm.SectionInput
}

func (f *fakeSummarizer) Summarize(_ context.Context, in llm.SectionInput) (*llm.Summary, error) {
	f.calls = append(f.calls, in)
	if len(f.results) > 0 {
		err := f.results[0]
		f.results = f.results[1:]
		if err != nil {
			return nil, err
		}
	}
	return &llm.Summary{
		PlainSummaryBullets: []string{"This section names the Act."},
		EvidenceQuotes:      []string{"may be cited as"},
	}, nil
}

func (f *fakeSummarizer) Close() error { return nil }

type fakeEnqueuer struct {
	ids []uuid.UUID
	err error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, ids []uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, ids...)
	return nil
}

func testSection(billID uuid.UUID, order int) *db.Section {
	return &db.Section{
		ID:     uuid.New(),
		BillID: billID,
		Section: types.Section{
			SectionKey: "SEC. 1",
			Heading:    "SHORT TITLE",
			OrderIndex: order,
			Text:       "This Act may be cited as the Test Act.",
		},
	}
}

func message(id string, sectionID uuid.UUID, attempt int) queue.Message {
	env, err := queue.NewSummarizeEnvelope(sectionID, attempt)
	if err != nil {
		panic(err)
	}
	return queue.Message{ID: id, Envelope: env}
}
