package types

// Section keys that do not come from a heading in the source text.
const (
	SectionKeyPreamble = "PREAMBLE"
	SectionKeyFullText = "FULL_TEXT"
)

// Section is one addressable unit of bill text.
// Division, Title and TitleHeading are empty when the bill has no such grouping.
type Section struct {
	SectionKey   string `json:"section_key"`
	Heading      string `json:"heading"`
	Division     string `json:"division,omitempty"`
	Title        string `json:"title,omitempty"`
	TitleHeading string `json:"title_heading,omitempty"`
	OrderIndex   int    `json:"order_index"`
	Text         string `json:"text"`
	TextHash     string `json:"text_hash"`
}
