// Package backfill retrofits division and title grouping onto persisted sections
// by re-parsing the bill text and matching sections on their normalized key.
package backfill

import (
	"github.com/jonathan/justabill/internal/db"
	"github.com/jonathan/justabill/internal/sectioning"
	"github.com/jonathan/justabill/internal/types"
)

// Report counts the outcome of a backfill pass.
type Report struct {
	Total   int `json:"sections_total"`
	Updated int `json:"sections_updated"`
	Missing int `json:"sections_missing_match"`
}

// MatchResult holds the group updates to apply and the counts behind them.
type MatchResult struct {
	Updates []db.GroupUpdate
	Missing []db.Section
	Report  Report
}

// Match pairs each persisted section with a freshly parsed one sharing its normalized key.
// With several candidates the one at the same order index wins, else the first in parse order.
// Persisted sections without a candidate are reported missing and left alone.
func Match(fresh []types.Section, persisted []db.Section) MatchResult {
	candidates := make(map[string][]types.Section, len(fresh))
	for _, s := range fresh {
		key := sectioning.NormalizeKey(s.SectionKey)
		candidates[key] = append(candidates[key], s)
	}

	result := MatchResult{Report: Report{Total: len(persisted)}}
	for _, p := range persisted {
		matches := candidates[sectioning.NormalizeKey(p.SectionKey)]
		if len(matches) == 0 {
			result.Missing = append(result.Missing, p)
			result.Report.Missing++
			continue
		}

		chosen := matches[0]
		for _, c := range matches {
			if c.OrderIndex == p.OrderIndex {
				chosen = c
				break
			}
		}

		result.Updates = append(result.Updates, db.GroupUpdate{
			SectionID:    p.ID,
			Division:     chosen.Division,
			Title:        chosen.Title,
			TitleHeading: chosen.TitleHeading,
		})
		result.Report.Updated++
	}
	return result
}
