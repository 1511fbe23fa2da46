package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/justabill/internal/types"
)

// -----------------------------------------------------------------------------
// Section Methods
// -----------------------------------------------------------------------------

const sectionColumns = `id, bill_id, section_key, heading, division, title, title_heading,
	order_index, section_text, section_text_hash, summary_json, evidence_quotes, created_at, updated_at`

func scanSection(row pgx.Row) (*Section, error) {
	var s Section
	var heading, division, title, titleHeading *string
	err := row.Scan(&s.ID, &s.BillID, &s.SectionKey, &heading, &division, &title, &titleHeading,
		&s.OrderIndex, &s.Text, &s.TextHash, &s.SummaryJSON, &s.EvidenceQuotes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Heading = deref(heading)
	s.Division = deref(division)
	s.Title = deref(title)
	s.TitleHeading = deref(titleHeading)
	return &s, nil
}

// ErrUnchanged is returned by ReplaceSections when the latest stored version already has the
// content hash being written, typically because a concurrent ingestion of the bill won.
var ErrUnchanged = errors.New("bill text unchanged")

// ReplaceSections records a new version of the bill text and replaces every section of the
// bill with the given ones, all in one transaction. It returns the new section IDs in order.
// The bill row is locked for the duration, and the latest content hash is checked again
// under that lock.
func (db *DB) ReplaceSections(ctx context.Context, billID uuid.UUID, version *VersionInput, sections []types.Section) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(sections))

	err := db.withTx(ctx, func(tx pgx.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM bills WHERE id = $1 FOR UPDATE`, billID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("bill %s not found", billID)
			}
			return fmt.Errorf("failed to lock bill: %w", err)
		}

		if version != nil {
			lastHash, err := latestHash(ctx, tx, billID)
			if err != nil {
				return err
			}
			if lastHash == version.ContentHash {
				return ErrUnchanged
			}
			if _, err := insertVersion(ctx, tx, billID, version); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM bill_sections WHERE bill_id = $1`, billID); err != nil {
			return fmt.Errorf("failed to delete sections: %w", err)
		}

		for _, s := range sections {
			id := uuid.New()
			_, err := tx.Exec(ctx,
				`INSERT INTO bill_sections (id, bill_id, section_key, heading, division, title, title_heading,
				                            order_index, section_text, section_text_hash)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				id, billID, s.SectionKey, nullIfEmpty(s.Heading), nullIfEmpty(s.Division),
				nullIfEmpty(s.Title), nullIfEmpty(s.TitleHeading), s.OrderIndex, s.Text, s.TextHash,
			)
			if err != nil {
				return fmt.Errorf("failed to insert section %s (order %d): %w", s.SectionKey, s.OrderIndex, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListSections retrieves all sections of a bill ordered by order_index.
func (db *DB) ListSections(ctx context.Context, billID uuid.UUID) ([]Section, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+sectionColumns+` FROM bill_sections WHERE bill_id = $1 ORDER BY order_index`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sections: %w", err)
	}
	return sections, nil
}

// CountSections returns the number of sections stored for a bill.
func (db *DB) CountSections(ctx context.Context, billID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bill_sections WHERE bill_id = $1`, billID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sections: %w", err)
	}
	return count, nil
}

// GetSection retrieves a section by ID. Returns nil, nil when it does not exist.
func (db *DB) GetSection(ctx context.Context, id uuid.UUID) (*Section, error) {
	s, err := scanSection(db.pool.QueryRow(ctx,
		`SELECT `+sectionColumns+` FROM bill_sections WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	return s, nil
}

// UpdateSectionGroups writes division, title and title heading onto existing sections in
// one transaction. Identity, text, order and summaries are left untouched.
func (db *DB) UpdateSectionGroups(ctx context.Context, updates []GroupUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	return db.withTx(ctx, func(tx pgx.Tx) error {
		for _, u := range updates {
			_, err := tx.Exec(ctx,
				`UPDATE bill_sections
				 SET division = $2, title = $3, title_heading = $4, updated_at = NOW()
				 WHERE id = $1`,
				u.SectionID, nullIfEmpty(u.Division), nullIfEmpty(u.Title), nullIfEmpty(u.TitleHeading),
			)
			if err != nil {
				return fmt.Errorf("failed to update groups for section %s: %w", u.SectionID, err)
			}
		}
		return nil
	})
}

// SaveSectionSummary stores the summary document and evidence quotes of a section.
func (db *DB) SaveSectionSummary(ctx context.Context, id uuid.UUID, summary json.RawMessage, evidenceQuotes json.RawMessage) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE bill_sections SET summary_json = $2, evidence_quotes = $3, updated_at = NOW() WHERE id = $1`,
		id, nullJSON(summary), nullJSON(evidenceQuotes),
	)
	if err != nil {
		return fmt.Errorf("failed to save section summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("section %s not found", id)
	}
	return nil
}
