package summarize

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResummarizeBill(t *testing.T) {
	billID := uuid.New()
	a, b := testSection(billID, 0), testSection(billID, 1)
	other := testSection(uuid.New(), 0)
	enqueuer := &fakeEnqueuer{}

	n, err := ResummarizeBill(context.Background(), newFakeStore(a, b, other), enqueuer, billID)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, enqueuer.ids)
}

func TestResummarizeBill_NoSections(t *testing.T) {
	_, err := ResummarizeBill(context.Background(), newFakeStore(), &fakeEnqueuer{}, uuid.New())
	assert.ErrorIs(t, err, ErrNoSections)
}

func TestResummarizeBill_Errors(t *testing.T) {
	billID := uuid.New()

	store := newFakeStore(testSection(billID, 0))
	store.listErr = errBoom
	_, err := ResummarizeBill(context.Background(), store, &fakeEnqueuer{}, billID)
	assert.ErrorIs(t, err, errBoom)

	_, err = ResummarizeBill(context.Background(), newFakeStore(testSection(billID, 0)), &fakeEnqueuer{err: errBoom}, billID)
	assert.ErrorIs(t, err, errBoom)
}
