// Package sectioning splits normalized bill text into ordered sections and chunks
// oversized sections for summarization.
package sectioning

import (
	"regexp"
	"strings"

	"github.com/jonathan/justabill/internal/types"
)

const (
	preambleHeading = "Preamble"
	fullTextHeading = "Full Bill Text"
)

type headingKind int

const (
	kindSection headingKind = iota
	kindTitle
	kindDivision
)

type headingPattern struct {
	re   *regexp.Regexp
	kind headingKind
}

// headingPatterns are tried in order; the first match wins.
var headingPatterns = []headingPattern{
	{re: regexp.MustCompile(`(?i)^SEC\.\s+(\d+[A-Za-z]?)\.\s+(.+)$`), kind: kindSection},
	{re: regexp.MustCompile(`(?i)^SECTION\s+(\d+[A-Za-z]?)\.\s+(.+)$`), kind: kindSection},
	{re: regexp.MustCompile(`(?i)^§\s*(\d+[A-Za-z]?)\.\s+(.+)$`), kind: kindSection},
	{re: regexp.MustCompile(`(?i)^TITLE\s+([IVXLCDM]+)\s*[—–-]\s*(.+)$`), kind: kindTitle},
	{re: regexp.MustCompile(`(?i)^DIVISION\s+([A-Z])\s*[—–-]\s*(.+)$`), kind: kindDivision},
}

type heading struct {
	kind    headingKind
	label   string
	heading string
}

// matchHeading tests line against the heading patterns.
func matchHeading(line string) (heading, bool) {
	for _, p := range headingPatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label := strings.ToUpper(m[1])
		h := heading{kind: p.kind, heading: strings.TrimSpace(m[2])}
		switch p.kind {
		case kindSection:
			h.label = "SEC. " + label
		case kindTitle:
			h.label = "TITLE " + label
		case kindDivision:
			h.label = "DIVISION " + label
		}
		return h, true
	}
	return heading{}, false
}

// sectionizer carries the scan state: the open section, its lines and the grouping context.
type sectionizer struct {
	sections []types.Section
	open     *types.Section
	lines    []string

	division     string
	title        string
	titleHeading string
}

func (s *sectionizer) openSection(key, heading string) {
	s.open = &types.Section{
		SectionKey:   key,
		Heading:      heading,
		Division:     s.division,
		Title:        s.title,
		TitleHeading: s.titleHeading,
	}
	s.lines = s.lines[:0]
}

// closeSection emits the open section when it has text.
func (s *sectionizer) closeSection() {
	if s.open == nil {
		return
	}
	text := strings.TrimSpace(strings.Join(s.lines, "\n"))
	if text != "" {
		sec := *s.open
		sec.Text = text
		sec.TextHash = types.HashText(text)
		sec.OrderIndex = len(s.sections)
		s.sections = append(s.sections, sec)
	}
	s.open = nil
	s.lines = s.lines[:0]
}

func (s *sectionizer) onHeading(h heading) {
	s.closeSection()
	switch h.kind {
	case kindDivision:
		s.division = h.label
		s.title = ""
		s.titleHeading = ""
	case kindTitle:
		s.title = h.label
		s.titleHeading = h.heading
	}
	s.openSection(h.label, h.heading)
}

func (s *sectionizer) onLine(line string) {
	if s.open == nil {
		s.openSection(types.SectionKeyPreamble, preambleHeading)
	}
	s.lines = append(s.lines, line)
}

// Sectionize splits normalized text into sections in document order.
// Blank lines are skipped. Text before the first heading becomes a PREAMBLE section.
// Sections without text are dropped and order indexes stay contiguous from 0.
// When no heading is recognized the whole trimmed input is returned as one FULL_TEXT section.
func Sectionize(text string) []types.Section {
	s := &sectionizer{}
	matched := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if h, ok := matchHeading(line); ok {
			matched = true
			s.onHeading(h)
			continue
		}
		s.onLine(line)
	}
	s.closeSection()

	if !matched || len(s.sections) == 0 {
		full := strings.TrimSpace(text)
		return []types.Section{{
			SectionKey: types.SectionKeyFullText,
			Heading:    fullTextHeading,
			OrderIndex: 0,
			Text:       full,
			TextHash:   types.HashText(full),
		}}
	}
	return s.sections
}
