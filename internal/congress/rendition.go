package congress

import (
	"strings"

	"github.com/jonathan/justabill/internal/types"
)

// formatPreference ranks usable format types; lower is better. PDF and unknown types are unusable.
func formatPreference(formatType string) (rank int, contentType string, ok bool) {
	t := strings.ToLower(strings.TrimSpace(formatType))
	switch {
	case t == "formatted text" || t == "html" || strings.Contains(t, "html"):
		return 0, "text/html", true
	case strings.Contains(t, "xml"):
		return 1, "application/xml", true
	default:
		return 0, "", false
	}
}

// SelectRendition picks the text source for ingestion: the first version in source order
// that has a usable format, preferring Formatted Text/HTML over XML within that version.
func SelectRendition(versions []TextVersion) (types.Rendition, bool) {
	for _, version := range versions {
		best := -1
		var selected types.Rendition
		for _, f := range version.Formats {
			if f.URL == "" {
				continue
			}
			rank, contentType, ok := formatPreference(f.Type)
			if !ok {
				continue
			}
			if best == -1 || rank < best {
				best = rank
				selected = types.Rendition{
					Label:       version.Type,
					SourceURL:   f.URL,
					ContentType: contentType,
				}
			}
		}
		if best != -1 {
			return selected, true
		}
	}
	return types.Rendition{}, false
}
