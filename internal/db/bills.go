package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/justabill/internal/types"
)

// -----------------------------------------------------------------------------
// Bill Methods
// -----------------------------------------------------------------------------

const billColumns = `id, congress, bill_type, bill_number, title, introduced_date, latest_action_date,
	status, sponsor, source_urls, raw_metadata, is_law_impact_candidate, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	var title *string
	var status string
	var sourceURLs []byte
	err := row.Scan(&b.ID, &b.Congress, &b.BillType, &b.BillNumber, &title,
		&b.IntroducedDate, &b.LatestActionDate, &status, &b.Sponsor, &sourceURLs,
		&b.RawMetadata, &b.IsLawImpactCandidate, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Title = deref(title)
	b.Status = types.Status(status)
	if len(sourceURLs) > 0 {
		if err := json.Unmarshal(sourceURLs, &b.SourceURLs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal source urls: %w", err)
		}
	}
	return &b, nil
}

// UpsertBill inserts a bill or updates the existing row with the same natural key.
func (db *DB) UpsertBill(ctx context.Context, input *BillUpsertInput) (*Bill, error) {
	sourceURLs, err := json.Marshal(input.SourceURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal source urls: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO bills (congress, bill_type, bill_number, title, introduced_date, latest_action_date,
		                    status, sponsor, source_urls, raw_metadata, is_law_impact_candidate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (congress, bill_type, bill_number) DO UPDATE SET
		     title = EXCLUDED.title,
		     introduced_date = EXCLUDED.introduced_date,
		     latest_action_date = EXCLUDED.latest_action_date,
		     status = EXCLUDED.status,
		     sponsor = EXCLUDED.sponsor,
		     source_urls = EXCLUDED.source_urls,
		     raw_metadata = EXCLUDED.raw_metadata,
		     is_law_impact_candidate = EXCLUDED.is_law_impact_candidate,
		     updated_at = NOW()
		 RETURNING `+billColumns,
		input.Identity.Congress, strings.ToLower(input.Identity.BillType), input.Identity.BillNumber,
		nullIfEmpty(input.Title), input.IntroducedDate, input.LatestActionDate,
		string(input.Status), nullJSON(input.Sponsor), sourceURLs, nullJSON(input.RawMetadata),
		input.IsLawImpactCandidate,
	)

	bill, err := scanBill(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert bill %s: %w", input.Identity, err)
	}
	return bill, nil
}

// GetBillByID retrieves a bill by ID. Returns nil, nil when it does not exist.
func (db *DB) GetBillByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	bill, err := scanBill(db.pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// GetBillByIdentity retrieves a bill by its natural key. Returns nil, nil when it does not exist.
func (db *DB) GetBillByIdentity(ctx context.Context, id types.BillIdentity) (*Bill, error) {
	bill, err := scanBill(db.pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills
		 WHERE congress = $1 AND bill_type = $2 AND bill_number = $3`,
		id.Congress, strings.ToLower(id.BillType), id.BillNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bill %s: %w", id, err)
	}
	return bill, nil
}

// nullJSON maps an empty document to SQL NULL.
func nullJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
