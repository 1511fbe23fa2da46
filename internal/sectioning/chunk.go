package sectioning

import "strings"

const (
	// CharsPerToken approximates how many characters one model token covers.
	CharsPerToken = 4
	// DefaultMaxTokens is the chunk budget used when the caller passes zero or less.
	DefaultMaxTokens = 4000

	paragraphSeparator = "\n\n"
)

// Chunk splits text into pieces of at most maxTokens*CharsPerToken bytes, breaking only
// between blank-line separated paragraphs. A paragraph longer than the budget is kept whole
// in its own chunk, together with any empty paragraphs next to it.
// strings.Join(chunks, "\n\n") always reconstructs text.
func Chunk(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	maxChars := maxTokens * CharsPerToken
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, unit := range paragraphUnits(text) {
		added := len(unit)
		if len(current) > 0 {
			added += len(paragraphSeparator)
		}
		if len(current) > 0 && currentLen+added > maxChars {
			chunks = append(chunks, strings.Join(current, paragraphSeparator))
			current = nil
			currentLen = 0
			added = len(unit)
		}
		current = append(current, unit)
		currentLen += added
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, paragraphSeparator))
	}
	return chunks
}

// paragraphUnits splits text on paragraph separators and binds every empty paragraph to the
// next non-empty one, or to the last one when none follows. Each unit holds exactly one
// non-empty paragraph unless text has none, and joining the units with the separator
// reconstructs text.
func paragraphUnits(text string) []string {
	var units []string
	var pending []string
	for _, para := range strings.Split(text, paragraphSeparator) {
		pending = append(pending, para)
		if para != "" {
			units = append(units, strings.Join(pending, paragraphSeparator))
			pending = nil
		}
	}
	if len(pending) > 0 {
		tail := strings.Join(pending, paragraphSeparator)
		if len(units) == 0 {
			return []string{tail}
		}
		units[len(units)-1] += paragraphSeparator + tail
	}
	return units
}
