// Package types provides type definitions for structured data used throughout the bill ingestion system.
package types

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BillIdentity is the natural key of a bill: (congress, bill type, bill number).
type BillIdentity struct {
	Congress   int    `json:"congress" validate:"required,min=1,max=999"`
	BillType   string `json:"bill_type" validate:"required,oneof=hr s hjres sjres hconres sconres hres sres"`
	BillNumber int    `json:"bill_number" validate:"required,min=1"`
}

// NewBillIdentity builds an identity with the bill type lower-cased.
func NewBillIdentity(congress int, billType string, billNumber int) BillIdentity {
	return BillIdentity{
		Congress:   congress,
		BillType:   strings.ToLower(strings.TrimSpace(billType)),
		BillNumber: billNumber,
	}
}

// Validate validates the identity using the validator.
func (b BillIdentity) Validate() error {
	validate := validator.New()
	return validate.Struct(b)
}

// String renders the identity as congress/type/number, e.g. 118/hr/1234.
func (b BillIdentity) String() string {
	return fmt.Sprintf("%d/%s/%d", b.Congress, b.BillType, b.BillNumber)
}

// IsLawImpactCandidate reports whether the bill type is a primary law-making vehicle.
func (b BillIdentity) IsLawImpactCandidate() bool {
	switch strings.ToLower(b.BillType) {
	case "hr", "s":
		return true
	default:
		return false
	}
}

// billTypeURLSegments maps bill type codes to congress.gov URL path segments.
var billTypeURLSegments = map[string]string{
	"hr":      "house-bill",
	"s":       "senate-bill",
	"hjres":   "house-joint-resolution",
	"sjres":   "senate-joint-resolution",
	"hconres": "house-concurrent-resolution",
	"sconres": "senate-concurrent-resolution",
	"hres":    "house-resolution",
	"sres":    "senate-resolution",
}

// CongressGovURL returns the public congress.gov page for the bill.
func (b BillIdentity) CongressGovURL() string {
	billType := strings.ToLower(b.BillType)
	segment, ok := billTypeURLSegments[billType]
	if !ok {
		segment = billType + "-bill"
	}
	return fmt.Sprintf("https://www.congress.gov/bill/%dth-congress/%s/%d", b.Congress, segment, b.BillNumber)
}

// Status is the coarse procedural stage of a bill.
type Status string

// Status values in no particular order; precedence lives in the status package.
const (
	StatusIntroduced   Status = "introduced"
	StatusInCommittee  Status = "in_committee"
	StatusPassedHouse  Status = "passed_house"
	StatusPassedSenate Status = "passed_senate"
	StatusPassedBoth   Status = "passed_both"
	StatusInConference Status = "in_conference"
	StatusVetoed       Status = "vetoed"
	StatusEnacted      Status = "enacted"
)

var knownStatuses = map[Status]bool{
	StatusIntroduced:   true,
	StatusInCommittee:  true,
	StatusPassedHouse:  true,
	StatusPassedSenate: true,
	StatusPassedBoth:   true,
	StatusInConference: true,
	StatusVetoed:       true,
	StatusEnacted:      true,
}

// ParseStatus converts a caller-supplied string into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !knownStatuses[status] {
		return "", fmt.Errorf("unknown bill status %q", s)
	}
	return status, nil
}

// ActionEvent is one entry of a bill's procedural action history.
type ActionEvent struct {
	Text          string `json:"text"`
	ActionDate    string `json:"action_date,omitempty"`
	SourceChamber string `json:"source_chamber,omitempty"`
}

// Rendition is one fetchable text representation of a bill.
type Rendition struct {
	Label       string `json:"label"`
	SourceURL   string `json:"source_url"`
	ContentType string `json:"content_type"`
}

// ExtractedText is normalized plain text plus its content hash.
type ExtractedText struct {
	Text string `json:"text"`
	Hash string `json:"hash"`
}
