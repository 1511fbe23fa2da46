//go:build integration

package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// getTestDB connects to TEST_DATABASE_URL, or to a throwaway postgres container when unset.
func getTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = startPostgres(t, ctx)
	}

	var migErr error
	for i := 0; i < 10; i++ {
		if migErr = Migrate(dsn, DirectionUp, 0); migErr == nil {
			break
		}
		time.Sleep(300 * time.Millisecond)
	}
	require.NoError(t, migErr, "failed to migrate test database")

	db, err := Connect(ctx, dsn)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(db.Close)

	_, _ = db.pool.Exec(ctx, "DELETE FROM bills WHERE congress = 999")
	return db
}

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "justabill",
			"POSTGRES_PASSWORD": "justabill",
			"POSTGRES_DB":       "justabill",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)
	host, err := pg.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("postgres://justabill:justabill@%s:%s/justabill?sslmode=disable", host, port.Port())
}

func testBillInput(number int) *BillUpsertInput {
	introduced := time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)
	return &BillUpsertInput{
		Identity:             types.NewBillIdentity(999, "hr", number),
		Title:                "Test Act",
		IntroducedDate:       &introduced,
		Status:               types.StatusPassedHouse,
		Sponsor:              json.RawMessage(`{"bioguideId":"X000001"}`),
		SourceURLs:           map[string]string{SourceURLCongressGov: "https://www.congress.gov/bill/999th-congress/house-bill/1"},
		RawMetadata:          json.RawMessage(`{"title":"Test Act"}`),
		IsLawImpactCandidate: true,
	}
}

func testSections() []types.Section {
	return []types.Section{
		{SectionKey: "SEC. 1", Heading: "SHORT TITLE", OrderIndex: 0, Text: "Short.", TextHash: types.HashText("Short.")},
		{SectionKey: "SEC. 2", Heading: "DEFINITIONS", OrderIndex: 1, Text: "Terms.", TextHash: types.HashText("Terms.")},
	}
}

func TestIntegration_UpsertBill(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()

	first, err := db.UpsertBill(ctx, testBillInput(1))
	require.NoError(t, err)
	assert.Equal(t, "Test Act", first.Title)
	assert.Equal(t, types.StatusPassedHouse, first.Status)
	require.NotNil(t, first.IntroducedDate)
	assert.Equal(t, "2023-01-09", first.IntroducedDate.Format("2006-01-02"))

	input := testBillInput(1)
	input.Status = types.StatusEnacted
	input.Title = "Renamed Act"
	second, err := db.UpsertBill(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "natural key must map to the same row")
	assert.Equal(t, types.StatusEnacted, second.Status)
	assert.Equal(t, "Renamed Act", second.Title)

	byIdentity, err := db.GetBillByIdentity(ctx, types.NewBillIdentity(999, "HR", 1))
	require.NoError(t, err)
	require.NotNil(t, byIdentity)
	assert.Equal(t, first.ID, byIdentity.ID)
	assert.Equal(t, "https://www.congress.gov/bill/999th-congress/house-bill/1", byIdentity.SourceURLs[SourceURLCongressGov])

	missing, err := db.GetBillByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIntegration_ReplaceSections(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()

	bill, err := db.UpsertBill(ctx, testBillInput(2))
	require.NoError(t, err)

	latest, err := db.LatestVersion(ctx, bill.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	ids, err := db.ReplaceSections(ctx, bill.ID, &VersionInput{
		Label: "Introduced in House", SourceURL: "https://example.test/v1.htm", ContentHash: "hash-1", RawText: "v1",
	}, testSections())
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	replacement := []types.Section{{SectionKey: types.SectionKeyFullText, Heading: "Full Bill Text", OrderIndex: 0, Text: "All.", TextHash: types.HashText("All.")}}
	newIDs, err := db.ReplaceSections(ctx, bill.ID, &VersionInput{
		Label: "Engrossed in House", SourceURL: "https://example.test/v2.htm", ContentHash: "hash-2", RawText: "v2",
	}, replacement)
	require.NoError(t, err)
	require.Len(t, newIDs, 1)

	latest, err = db.LatestVersion(ctx, bill.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "hash-2", latest.ContentHash)
	assert.Equal(t, "Engrossed in House", latest.VersionLabel)

	sections, err := db.ListSections(ctx, bill.ID)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, newIDs[0], sections[0].ID)
	assert.Equal(t, types.SectionKeyFullText, sections[0].SectionKey)

	count, err := db.CountSections(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	old, err := db.GetSection(ctx, ids[0])
	require.NoError(t, err)
	assert.Nil(t, old, "replaced sections must be gone")
}

func TestIntegration_ReplaceSections_RollsBackOnFailure(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()

	bill, err := db.UpsertBill(ctx, testBillInput(3))
	require.NoError(t, err)
	_, err = db.ReplaceSections(ctx, bill.ID, &VersionInput{Label: "v1", SourceURL: "u", ContentHash: "hash-1"}, testSections())
	require.NoError(t, err)

	// Duplicate order_index violates the (bill_id, order_index) constraint.
	broken := testSections()
	broken[1].OrderIndex = 0
	_, err = db.ReplaceSections(ctx, bill.ID, &VersionInput{Label: "v2", SourceURL: "u", ContentHash: "hash-2"}, broken)
	require.Error(t, err)

	sections, err := db.ListSections(ctx, bill.ID)
	require.NoError(t, err)
	assert.Len(t, sections, 2, "previous section set must survive a failed replace")

	latest, err := db.LatestVersion(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", latest.ContentHash)
}

func TestIntegration_ReplaceSections_ConcurrentSameHash(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()

	bill, err := db.UpsertBill(ctx, testBillInput(5))
	require.NoError(t, err)

	const writers = 4
	var wg sync.WaitGroup
	errs := make([]error, writers)
	results := make([][]uuid.UUID, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = db.ReplaceSections(ctx, bill.ID, &VersionInput{
				Label: "Introduced in House", SourceURL: "https://example.test/v1.htm", ContentHash: "same-hash", RawText: "v1",
			}, testSections())
		}(i)
	}
	wg.Wait()

	var winner []uuid.UUID
	for i, err := range errs {
		if err == nil {
			require.Nil(t, winner, "only one writer may store the version")
			winner = results[i]
			continue
		}
		assert.ErrorIs(t, err, ErrUnchanged)
	}
	require.Len(t, winner, 2)

	sections, err := db.ListSections(ctx, bill.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, winner[0], sections[0].ID, "the winner's section IDs must survive")
	assert.Equal(t, winner[1], sections[1].ID)

	var versions int
	require.NoError(t, db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bill_versions WHERE bill_id = $1`, bill.ID).Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestIntegration_UpdateSectionGroupsAndSummary(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()

	bill, err := db.UpsertBill(ctx, testBillInput(4))
	require.NoError(t, err)
	ids, err := db.ReplaceSections(ctx, bill.ID, &VersionInput{Label: "v1", SourceURL: "u", ContentHash: "h"}, testSections())
	require.NoError(t, err)

	require.NoError(t, db.SaveSectionSummary(ctx, ids[0],
		json.RawMessage(`{"plain_summary_bullets":["a"]}`), json.RawMessage(`["quote"]`)))

	err = db.UpdateSectionGroups(ctx, []GroupUpdate{
		{SectionID: ids[0], Division: "DIVISION A", Title: "TITLE I", TitleHeading: "GENERAL"},
	})
	require.NoError(t, err)

	s, err := db.GetSection(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "DIVISION A", s.Division)
	assert.Equal(t, "TITLE I", s.Title)
	assert.Equal(t, "GENERAL", s.TitleHeading)
	assert.Equal(t, "Short.", s.Text)
	assert.Equal(t, 0, s.OrderIndex)
	assert.JSONEq(t, `{"plain_summary_bullets":["a"]}`, string(s.SummaryJSON))

	untouched, err := db.GetSection(ctx, ids[1])
	require.NoError(t, err)
	assert.Empty(t, untouched.Division)

	assert.Error(t, db.SaveSectionSummary(ctx, uuid.New(), json.RawMessage(`{}`), nil))
}
