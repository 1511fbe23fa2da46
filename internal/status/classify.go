// Package status classifies a bill's procedural stage from its action history.
package status

import (
	"strings"

	"github.com/jonathan/justabill/internal/types"
)

// senateSourceSystem is the source-system name congress.gov uses for Senate-recorded actions.
const senateSourceSystem = "Senate"

// Classify maps the latest action plus the full action history to exactly one status.
// Rules are evaluated top to bottom and the first match wins:
//
//  1. enacted: "became public law" or "became law" anywhere
//  2. vetoed: "veto" anywhere and no "override"
//  3. passed_both: some event shows House passage and some event shows Senate passage
//  4. in_conference: "conference" anywhere
//  5. passed_senate: some event shows Senate passage
//  6. passed_house: some event shows House passage
//  7. passed_house: any history event was recorded by the Senate source system
//  8. in_committee: "committee" or "referred to" anywhere
//  9. introduced
func Classify(latest *types.ActionEvent, history []types.ActionEvent) types.Status {
	texts := make([]string, 0, len(history)+1)
	if latest != nil {
		texts = append(texts, strings.ToLower(latest.Text))
	}
	for _, a := range history {
		texts = append(texts, strings.ToLower(a.Text))
	}
	corpus := strings.Join(texts, " ")

	if strings.Contains(corpus, "became public law") || strings.Contains(corpus, "became law") {
		return types.StatusEnacted
	}
	if strings.Contains(corpus, "veto") && !strings.Contains(corpus, "override") {
		return types.StatusVetoed
	}

	passedHouse, passedSenate := false, false
	for _, t := range texts {
		passedHouse = passedHouse || isChamberPassage(t, "house")
		passedSenate = passedSenate || isChamberPassage(t, "senate")
	}

	switch {
	case passedHouse && passedSenate:
		return types.StatusPassedBoth
	case strings.Contains(corpus, "conference"):
		return types.StatusInConference
	case passedSenate:
		return types.StatusPassedSenate
	case passedHouse:
		return types.StatusPassedHouse
	}

	// Senate involvement is taken to mean the House already passed the bill.
	// Only the history is consulted; the latest action carries no source system.
	for _, a := range history {
		if a.SourceChamber == senateSourceSystem {
			return types.StatusPassedHouse
		}
	}

	if strings.Contains(corpus, "committee") || strings.Contains(corpus, "referred to") {
		return types.StatusInCommittee
	}
	return types.StatusIntroduced
}

// isChamberPassage reports whether one lower-cased action text records passage in chamber.
func isChamberPassage(text, chamber string) bool {
	return strings.Contains(text, "passed "+chamber) ||
		strings.Contains(text, "agreed to in "+chamber) ||
		(strings.Contains(text, "on passage passed") && strings.Contains(text, chamber))
}
