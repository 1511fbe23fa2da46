// Package queue carries summarization requests over Redis Streams.
//
// Every stream entry holds one JSON Envelope under the "envelope" field. Delayed
// retries wait in a sorted set next to the stream until PromoteDue moves them in.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/schemas"
)

const (
	// EventSummarizeSection asks a worker to summarize one persisted section.
	EventSummarizeSection = "section.summarize"
	// PayloadVersion is the current version of the summarize payload.
	PayloadVersion = "v1"
)

// Envelope is the message wrapper written to the stream.
type Envelope struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	OccurredAt     time.Time       `json:"occurred_at"`
	TraceID        string          `json:"trace_id,omitempty"`
	Attempt        int             `json:"attempt"`
	PayloadVersion string          `json:"payload_version"`
	Data           json.RawMessage `json:"data"`
}

// SummarizePayload is the data of a section.summarize event.
type SummarizePayload struct {
	SectionID uuid.UUID `json:"section_id"`
}

// ValidateBasic checks the mandatory envelope fields. A zero OccurredAt is set to now.
func (e *Envelope) ValidateBasic() error {
	if e.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if e.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if e.PayloadVersion == "" {
		return fmt.Errorf("payload_version is required")
	}
	if e.Attempt < 0 {
		return fmt.Errorf("attempt must be >= 0")
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("data payload is required")
	}
	return nil
}

// Marshal returns the JSON encoding of the envelope.
func (e *Envelope) Marshal() ([]byte, error) {
	if err := e.ValidateBasic(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// UnmarshalEnvelope parses JSON bytes into an Envelope and validates required fields.
func UnmarshalEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if err := env.ValidateBasic(); err != nil {
		return env, err
	}
	return env, nil
}

// NewSummarizeEnvelope builds a section.summarize envelope for the given attempt.
func NewSummarizeEnvelope(sectionID uuid.UUID, attempt int) (Envelope, error) {
	data, err := json.Marshal(SummarizePayload{SectionID: sectionID})
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Envelope{
		EventID:        uuid.NewString(),
		EventType:      EventSummarizeSection,
		OccurredAt:     time.Now().UTC(),
		Attempt:        attempt,
		PayloadVersion: PayloadVersion,
		Data:           data,
	}, nil
}

// Summarize decodes the section.summarize payload after validating it against its schema.
func (e *Envelope) Summarize() (SummarizePayload, error) {
	var p SummarizePayload
	if e.EventType != EventSummarizeSection {
		return p, fmt.Errorf("unexpected event type %q", e.EventType)
	}
	if err := schemas.Validate(schemas.SummarizeRequest, e.Data); err != nil {
		return p, err
	}
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return p, fmt.Errorf("unmarshal summarize payload: %w", err)
	}
	return p, nil
}
