package llm

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/justabill/internal/schemas"
)

// SectionInput is the part of a section sent to the model.
type SectionInput struct {
	SectionKey string
	Heading    string
	Text       string
}

// Summary is a grounded summary of one section.
type Summary struct {
	PlainSummaryBullets []string `json:"plain_summary_bullets"`
	KeyTerms            []string `json:"key_terms"`
	WhoItAffects        []string `json:"who_it_affects"`
	EvidenceQuotes      []string `json:"evidence_quotes"`
	Uncertainties       []string `json:"uncertainties"`
}

// summaryDocument is the stored summary_json shape; evidence quotes are stored separately.
type summaryDocument struct {
	PlainSummaryBullets []string `json:"plain_summary_bullets"`
	KeyTerms            []string `json:"key_terms"`
	WhoItAffects        []string `json:"who_it_affects"`
	Uncertainties       []string `json:"uncertainties"`
}

// ResponseError is returned when a model response is not a valid summary.
type ResponseError struct {
	Provider Provider
	Content  string
	Cause    error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("invalid %s summary response: %v", e.Provider, e.Cause)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// ParseSummary cleans markdown wrappers from a model response, validates it against the
// summary schema and decodes it. Missing optional lists decode as empty lists.
func ParseSummary(provider Provider, content string) (*Summary, error) {
	cleaned := CleanJSONBlock(content)
	if err := schemas.Validate(schemas.Summary, []byte(cleaned)); err != nil {
		return nil, &ResponseError{Provider: provider, Content: content, Cause: err}
	}

	var s Summary
	if err := json.Unmarshal([]byte(cleaned), &s); err != nil {
		return nil, &ResponseError{Provider: provider, Content: content, Cause: err}
	}
	s.normalize()
	return &s, nil
}

func (s *Summary) normalize() {
	for _, list := range []*[]string{&s.PlainSummaryBullets, &s.KeyTerms, &s.WhoItAffects, &s.EvidenceQuotes, &s.Uncertainties} {
		if *list == nil {
			*list = []string{}
		}
	}
}

// Document returns the summary_json payload stored on the section.
func (s *Summary) Document() (json.RawMessage, error) {
	s.normalize()
	return json.Marshal(summaryDocument{
		PlainSummaryBullets: s.PlainSummaryBullets,
		KeyTerms:            s.KeyTerms,
		WhoItAffects:        s.WhoItAffects,
		Uncertainties:       s.Uncertainties,
	})
}

// Quotes returns the evidence_quotes payload stored on the section.
func (s *Summary) Quotes() (json.RawMessage, error) {
	s.normalize()
	return json.Marshal(s.EvidenceQuotes)
}

// ErrorSummary is stored in place of a summary when generation fails.
func ErrorSummary(err error) *Summary {
	return &Summary{
		PlainSummaryBullets: []string{fmt.Sprintf("Error generating summary: %v", err)},
		KeyTerms:            []string{},
		WhoItAffects:        []string{},
		EvidenceQuotes:      []string{},
		Uncertainties:       []string{"Summary generation failed"},
	}
}
