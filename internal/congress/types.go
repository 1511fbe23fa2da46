package congress

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/justabill/internal/types"
)

// LatestAction is the most recent action summary attached to bill metadata.
type LatestAction struct {
	ActionDate string `json:"actionDate"`
	Text       string `json:"text"`
}

// BillMetadata is the bill object returned by GET /bill/{congress}/{type}/{number}.
// Raw holds the full object as received so it can be stored verbatim.
type BillMetadata struct {
	Congress       int               `json:"congress"`
	Type           string            `json:"type"`
	Number         string            `json:"number"`
	Title          string            `json:"title"`
	IntroducedDate string            `json:"introducedDate"`
	UpdateDate     string            `json:"updateDate"`
	OriginChamber  string            `json:"originChamber"`
	LatestAction   *LatestAction     `json:"latestAction"`
	Sponsors       []json.RawMessage `json:"sponsors"`
	Raw            json.RawMessage   `json:"-"`
}

// LatestEvent converts the latest action into an ActionEvent, or nil when absent.
func (m *BillMetadata) LatestEvent() *types.ActionEvent {
	if m == nil || m.LatestAction == nil {
		return nil
	}
	return &types.ActionEvent{
		Text:       m.LatestAction.Text,
		ActionDate: m.LatestAction.ActionDate,
	}
}

// PrimarySponsor returns the first sponsor object, or nil when the bill lists none.
func (m *BillMetadata) PrimarySponsor() json.RawMessage {
	if m == nil || len(m.Sponsors) == 0 {
		return nil
	}
	return m.Sponsors[0]
}

// Format is one downloadable representation of a text version.
type Format struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// TextVersion is one published version of the bill text (e.g. "Introduced in House").
type TextVersion struct {
	Type    string   `json:"type"`
	Date    string   `json:"date"`
	Formats []Format `json:"formats"`
}

// SourceSystem identifies which chamber's system recorded an action.
type SourceSystem struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// Action is one entry of the bill's action history.
type Action struct {
	ActionDate   string        `json:"actionDate"`
	Text         string        `json:"text"`
	Type         string        `json:"type"`
	SourceSystem *SourceSystem `json:"sourceSystem"`
}

// ToActionEvents converts API actions into domain action events.
func ToActionEvents(actions []Action) []types.ActionEvent {
	events := make([]types.ActionEvent, 0, len(actions))
	for _, a := range actions {
		event := types.ActionEvent{
			Text:       a.Text,
			ActionDate: a.ActionDate,
		}
		if a.SourceSystem != nil {
			event.SourceChamber = a.SourceSystem.Name
		}
		events = append(events, event)
	}
	return events
}

// BillRef is one entry of the recently-updated bill listing.
type BillRef struct {
	Congress     int           `json:"congress"`
	Type         string        `json:"type"`
	Number       string        `json:"number"`
	Title        string        `json:"title"`
	UpdateDate   string        `json:"updateDate"`
	LatestAction *LatestAction `json:"latestAction"`
}

// Identity converts the listing entry into a validated bill identity.
func (r BillRef) Identity() (types.BillIdentity, error) {
	number, err := strconv.Atoi(strings.TrimSpace(r.Number))
	if err != nil {
		return types.BillIdentity{}, fmt.Errorf("invalid bill number %q: %w", r.Number, err)
	}
	id := types.NewBillIdentity(r.Congress, r.Type, number)
	if err := id.Validate(); err != nil {
		return types.BillIdentity{}, fmt.Errorf("invalid bill identity %s: %w", id, err)
	}
	return id, nil
}

type pagination struct {
	Count int    `json:"count"`
	Next  string `json:"next"`
}

type billResponse struct {
	Bill json.RawMessage `json:"bill"`
}

type textResponse struct {
	TextVersions []TextVersion `json:"textVersions"`
}

type actionsResponse struct {
	Actions    []Action   `json:"actions"`
	Pagination pagination `json:"pagination"`
}

type billListResponse struct {
	Bills []BillRef `json:"bills"`
}
