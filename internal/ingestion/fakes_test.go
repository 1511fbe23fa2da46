package ingestion

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/congress"
	"github.com/jonathan/justabill/internal/db"
	"github.com/jonathan/justabill/internal/types"
)

type fakeSource struct {
	bill        *congress.BillMetadata
	billErr     error
	actions     []congress.Action
	actionsErr  error
	versions    []congress.TextVersion
	versionsErr error
	text        string
	textErr     error

	mu           sync.Mutex
	fetchedTexts []types.Rendition
}

func (f *fakeSource) GetBill(_ context.Context, id types.BillIdentity) (*congress.BillMetadata, error) {
	if f.billErr != nil {
		return nil, f.billErr
	}
	if f.bill == nil {
		return nil, &congress.NotFoundError{Bill: id}
	}
	return f.bill, nil
}

func (f *fakeSource) GetActions(context.Context, types.BillIdentity) ([]congress.Action, error) {
	return f.actions, f.actionsErr
}

func (f *fakeSource) GetTextVersions(context.Context, types.BillIdentity) ([]congress.TextVersion, error) {
	return f.versions, f.versionsErr
}

func (f *fakeSource) FetchText(_ context.Context, r types.Rendition) (string, error) {
	f.mu.Lock()
	f.fetchedTexts = append(f.fetchedTexts, r)
	f.mu.Unlock()
	return f.text, f.textErr
}

type replaceCall struct {
	billID   uuid.UUID
	version  db.VersionInput
	sections []types.Section
}

type fakeStore struct {
	mu        sync.Mutex
	bills     map[types.BillIdentity]*db.Bill
	upserts   []db.BillUpsertInput
	versions  map[uuid.UUID]*db.BillVersion
	sections  map[uuid.UUID]int
	replaces  []replaceCall
	upsertErr error

	// racer, when set, is stored as the bill's latest version just before a replace,
	// as if another ingestion committed it between the hash check and the write.
	racer *db.BillVersion
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		bills:    map[types.BillIdentity]*db.Bill{},
		versions: map[uuid.UUID]*db.BillVersion{},
		sections: map[uuid.UUID]int{},
	}
}

func (s *fakeStore) UpsertBill(_ context.Context, input *db.BillUpsertInput) (*db.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.upserts = append(s.upserts, *input)
	bill, ok := s.bills[input.Identity]
	if !ok {
		bill = &db.Bill{ID: uuid.New()}
		s.bills[input.Identity] = bill
	}
	bill.Congress = input.Identity.Congress
	bill.BillType = input.Identity.BillType
	bill.BillNumber = input.Identity.BillNumber
	bill.Title = input.Title
	bill.Status = input.Status
	return bill, nil
}

func (s *fakeStore) LatestVersion(_ context.Context, billID uuid.UUID) (*db.BillVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[billID], nil
}

func (s *fakeStore) CountSections(_ context.Context, billID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sections[billID], nil
}

func (s *fakeStore) ReplaceSections(_ context.Context, billID uuid.UUID, version *db.VersionInput, sections []types.Section) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.racer != nil && s.versions[billID] == nil {
		s.versions[billID] = s.racer
		s.sections[billID] = 2
	}
	if latest := s.versions[billID]; latest != nil && latest.ContentHash == version.ContentHash {
		return nil, db.ErrUnchanged
	}
	s.replaces = append(s.replaces, replaceCall{billID: billID, version: *version, sections: sections})
	s.versions[billID] = &db.BillVersion{
		ID:           uuid.New(),
		BillID:       billID,
		VersionLabel: version.Label,
		SourceURL:    version.SourceURL,
		ContentHash:  version.ContentHash,
		RawText:      version.RawText,
	}
	s.sections[billID] = len(sections)
	ids := make([]uuid.UUID, len(sections))
	for i := range sections {
		ids[i] = uuid.New()
	}
	return ids, nil
}

type fakeNotifier struct {
	calls [][]uuid.UUID
	err   error
}

func (n *fakeNotifier) Enqueue(_ context.Context, ids []uuid.UUID) error {
	n.calls = append(n.calls, ids)
	return n.err
}

var errBoom = errors.New("boom")
