// Package observability provides logging, metrics and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/justabill/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// IngestSummary is the subset of an ingestion result shown in verbose mode.
type IngestSummary struct {
	Bill            types.BillIdentity
	Title           string
	Status          types.Status
	Outcome         string
	Message         string
	SectionsCreated int
}

// PrintIngestSummary outputs the result of ingesting one bill.
func (p *Printer) PrintIngestSummary(s *IngestSummary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Bill:     %s\n", s.Bill))
	if s.Title != "" {
		sb.WriteString(fmt.Sprintf("Title:    %s\n", s.Title))
	}
	sb.WriteString(fmt.Sprintf("Status:   %s\n", s.Status))
	sb.WriteString(fmt.Sprintf("Outcome:  %s\n", s.Outcome))
	sb.WriteString(fmt.Sprintf("Sections: %d", s.SectionsCreated))
	if s.Message != "" {
		sb.WriteString(fmt.Sprintf("\n\n%s", s.Message))
	}

	p.printBox("INGESTION RESULT", sb.String())
}

// PrintSections outputs the first sections of a sectionized bill with their grouping.
func (p *Printer) PrintSections(sections []types.Section) {
	if len(sections) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total sections: %d\n\n", len(sections)))

	count := min(len(sections), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := sections[i]
		sb.WriteString(fmt.Sprintf("#%d  %s  %s\n", s.OrderIndex, s.SectionKey, s.Heading))

		var group []string
		if s.Division != "" {
			group = append(group, s.Division)
		}
		if s.Title != "" {
			group = append(group, s.Title)
		}
		if len(group) > 0 {
			sb.WriteString(fmt.Sprintf("    [%s]\n", strings.Join(group, " / ")))
		}
		sb.WriteString(fmt.Sprintf("    %d chars\n", len([]rune(s.Text))))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(sections) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more sections", len(sections)-maxItemsToShow))
	}

	p.printBox("SECTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBackfillReport outputs the counts of a group backfill pass.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintBackfillReport(total, updated, missing int) {
	if total == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO PERSISTED SECTIONS")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	content := fmt.Sprintf("Total:    %d\nUpdated:  %d\nMissing:  %d", total, updated, missing)
	p.printBox("GROUP BACKFILL", content)
}
