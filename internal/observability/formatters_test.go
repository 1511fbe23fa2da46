package observability

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/jonathan/justabill/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintIngestSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintIngestSummary(&IngestSummary{
		Bill:            types.NewBillIdentity(118, "hr", 1234),
		Title:           "Test Act",
		Status:          types.StatusPassedHouse,
		Outcome:         "success",
		SectionsCreated: 12,
	})
	output := buf.String()

	assert.Contains(t, output, "INGESTION RESULT")
	assert.Contains(t, output, "118/hr/1234")
	assert.Contains(t, output, "Test Act")
	assert.Contains(t, output, "passed_house")
	assert.Contains(t, output, "Sections: 12")
}

func TestPrintIngestSummary_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintIngestSummary(nil)

	assert.Empty(t, buf.String())
}

func TestPrintSections(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	sections := []types.Section{
		{SectionKey: "SEC. 1", Heading: "SHORT TITLE", OrderIndex: 0, Text: "This Act may be cited as the Test Act."},
		{SectionKey: "SEC. 101", Heading: "DEFINITIONS", Division: "DIVISION A", Title: "TITLE I", OrderIndex: 1, Text: "Terms."},
	}

	p.PrintSections(sections)
	output := buf.String()

	assert.Contains(t, output, "SECTIONS")
	assert.Contains(t, output, "Total sections: 2")
	assert.Contains(t, output, "SEC. 1")
	assert.Contains(t, output, "DIVISION A / TITLE I")
	assert.NotContains(t, output, "more sections")
}

func TestPrintSections_Truncated(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var sections []types.Section
	for i := 0; i < 8; i++ {
		sections = append(sections, types.Section{
			SectionKey: fmt.Sprintf("SEC. %d", i+1),
			Heading:    "HEADING",
			OrderIndex: i,
			Text:       "text",
		})
	}

	p.PrintSections(sections)

	assert.Contains(t, buf.String(), "... and 3 more sections")
}

func TestPrintBackfillReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBackfillReport(10, 8, 2)
	output := buf.String()

	assert.Contains(t, output, "GROUP BACKFILL")
	assert.Contains(t, output, "Updated:  8")
	assert.Contains(t, output, "Missing:  2")
}

func TestPrintBackfillReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintBackfillReport(0, 0, 0)

	assert.Contains(t, buf.String(), "NO PERSISTED SECTIONS")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "§§§§§§§...", truncate("§§§§§§§§§§§§§§§§", 10))
}
