package fetch

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContentSelectors are tried in order to locate the primary bill text container.
// congress.gov wraps formatted text in div.generated-html-container around a <pre>.
var ContentSelectors = []string{
	"div.generated-html-container",
	"pre",
	"body",
}

// noiseSelector lists elements that never carry bill text.
const noiseSelector = "script, style, noscript, head, meta, link"

// skippedXMLElements are metadata and provenance blocks dropped from XML renditions.
// Keys are lower-case local names.
var skippedXMLElements = map[string]bool{
	"metadata":    true,
	"dublincore":  true,
	"dublin-core": true,
	"meta":        true,
}

// ExtractText converts a fetched rendition into normalized plain text.
// The content type selects the parser; unknown types are treated as HTML.
func ExtractText(body []byte, contentType string) (string, error) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "html"):
		return ExtractMainText(string(body), ContentSelectors)
	case strings.Contains(ct, "xml"):
		return ExtractXMLText(body)
	case strings.HasPrefix(ct, "text/plain"):
		return NormalizeText(string(body)), nil
	default:
		return ExtractMainText(string(body), ContentSelectors)
	}
}

// ContentTypeFromPath guesses a content type from the extension of a file path or URL.
// Unknown extensions are treated as HTML.
func ContentTypeFromPath(p string) string {
	if u, err := url.Parse(p); err == nil && u.Scheme != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".xml":
		return "application/xml"
	case ".txt":
		return "text/plain"
	default:
		return "text/html"
	}
}

// ExtractMainText parses HTML and returns the text of the first container matched by
// contentSelectors, falling back to the whole document. Every text node becomes its own line.
func ExtractMainText(html string, contentSelectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Selection
	}

	var lines []string
	collectText(mainContent, &lines)
	return NormalizeText(strings.Join(lines, "\n")), nil
}

// collectText appends the text nodes under s in document order.
func collectText(s *goquery.Selection, lines *[]string) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			*lines = append(*lines, child.Text())
			return
		}
		collectText(child, lines)
	})
}

// ExtractXMLText streams an XML document and returns the character data of every
// element outside the skipped metadata blocks, one text run per line.
func ExtractXMLText(body []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity

	var lines []string
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skippedXMLElements[strings.ToLower(t.Name.Local)] {
				if err := decoder.Skip(); err != nil {
					return "", fmt.Errorf("failed to skip <%s>: %w", t.Name.Local, err)
				}
			}
		case xml.CharData:
			lines = append(lines, string(t))
		}
	}

	return NormalizeText(strings.Join(lines, "\n")), nil
}

// NormalizeText trims every line, drops whitespace-only lines and joins the rest with "\n".
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
