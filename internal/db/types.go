package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/types"
)

// SourceURLCongressGov is the source_urls key for the public congress.gov page.
const SourceURLCongressGov = "congress_gov"

// MaxRawTextRunes bounds the raw text stored with each version.
const MaxRawTextRunes = 100000

// Bill represents a bill record
type Bill struct {
	ID                   uuid.UUID         `json:"id"`
	Congress             int               `json:"congress"`
	BillType             string            `json:"bill_type"`
	BillNumber           int               `json:"bill_number"`
	Title                string            `json:"title,omitempty"`
	IntroducedDate       *time.Time        `json:"introduced_date,omitempty"`
	LatestActionDate     *time.Time        `json:"latest_action_date,omitempty"`
	Status               types.Status      `json:"status"`
	Sponsor              json.RawMessage   `json:"sponsor,omitempty"`
	SourceURLs           map[string]string `json:"source_urls,omitempty"`
	RawMetadata          json.RawMessage   `json:"raw_metadata,omitempty"`
	IsLawImpactCandidate bool              `json:"is_law_impact_candidate"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// Identity returns the bill's natural key.
func (b *Bill) Identity() types.BillIdentity {
	return types.BillIdentity{Congress: b.Congress, BillType: b.BillType, BillNumber: b.BillNumber}
}

// BillUpsertInput contains the fields written when a bill is ingested.
type BillUpsertInput struct {
	Identity             types.BillIdentity
	Title                string
	IntroducedDate       *time.Time
	LatestActionDate     *time.Time
	Status               types.Status
	Sponsor              json.RawMessage
	SourceURLs           map[string]string
	RawMetadata          json.RawMessage
	IsLawImpactCandidate bool
}

// BillVersion represents one fetched text version of a bill
type BillVersion struct {
	ID           uuid.UUID `json:"id"`
	BillID       uuid.UUID `json:"bill_id"`
	VersionLabel string    `json:"version_label"`
	SourceURL    string    `json:"source_url"`
	ContentHash  string    `json:"content_hash"`
	RawText      string    `json:"raw_text,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// VersionInput contains the fields for a new bill version.
type VersionInput struct {
	Label       string
	SourceURL   string
	ContentHash string
	RawText     string
}

// Section represents a persisted bill section with its summary, if any.
type Section struct {
	ID     uuid.UUID `json:"id"`
	BillID uuid.UUID `json:"bill_id"`
	types.Section
	SummaryJSON    json.RawMessage `json:"summary_json,omitempty"`
	EvidenceQuotes json.RawMessage `json:"evidence_quotes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// GroupUpdate carries the grouping metadata retrofitted onto one persisted section.
type GroupUpdate struct {
	SectionID    uuid.UUID `json:"section_id"`
	Division     string    `json:"division,omitempty"`
	Title        string    `json:"title,omitempty"`
	TitleHeading string    `json:"title_heading,omitempty"`
}

// TruncateRunes returns the first n runes of s.
func TruncateRunes(s string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
