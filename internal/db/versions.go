package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Bill Version Methods
// -----------------------------------------------------------------------------

// LatestVersion retrieves the most recently fetched version of a bill.
// Returns nil, nil when the bill has no versions.
func (db *DB) LatestVersion(ctx context.Context, billID uuid.UUID) (*BillVersion, error) {
	var v BillVersion
	var rawText *string
	err := db.pool.QueryRow(ctx,
		`SELECT id, bill_id, version_label, source_url, content_hash, raw_text, fetched_at
		 FROM bill_versions
		 WHERE bill_id = $1
		 ORDER BY fetched_at DESC
		 LIMIT 1`,
		billID,
	).Scan(&v.ID, &v.BillID, &v.VersionLabel, &v.SourceURL, &v.ContentHash, &rawText, &v.FetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}
	v.RawText = deref(rawText)
	return &v, nil
}

// latestHash returns the content hash of the bill's latest version, or "" when it has none.
func latestHash(ctx context.Context, tx pgx.Tx, billID uuid.UUID) (string, error) {
	var hash string
	err := tx.QueryRow(ctx,
		`SELECT content_hash FROM bill_versions WHERE bill_id = $1 ORDER BY fetched_at DESC LIMIT 1`,
		billID,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read latest content hash: %w", err)
	}
	return hash, nil
}

func insertVersion(ctx context.Context, tx pgx.Tx, billID uuid.UUID, input *VersionInput) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx,
		`INSERT INTO bill_versions (bill_id, version_label, source_url, content_hash, raw_text)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		billID, input.Label, input.SourceURL, input.ContentHash,
		TruncateRunes(input.RawText, MaxRawTextRunes),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert version: %w", err)
	}
	return id, nil
}
