package audit

import (
	"encoding/json"
	"fmt"
	"time"

	id "carehub/pkg/domain"
)

// wireEvent is the JSON shape written to streams and topics.
type wireEvent struct {
	ID         string         `json:"id"`
	Category   string         `json:"category"`
	Timestamp  string         `json:"timestamp"`
	ActionID   string         `json:"action_id"`
	Phase      string         `json:"phase"`
	UserID     string         `json:"user_id"`
	FacilityID string         `json:"facility_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	Device     string         `json:"device,omitempty"`
}

// Encode serializes an event for transport.
func Encode(e Event) ([]byte, error) {
	b, err := json.Marshal(wireEvent{
		ID:         e.ID,
		Category:   string(e.Category()),
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
		ActionID:   string(e.ActionID),
		Phase:      string(e.Phase),
		UserID:     string(e.UserID),
		FacilityID: string(e.FacilityID),
		Payload:    e.Payload,
		RequestID:  e.RequestID,
		IPAddress:  e.IPAddress,
		Device:     e.Device,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit event: %w", err)
	}
	return b, nil
}

// Decode parses an event produced by Encode.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("unmarshal audit event: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("parse audit timestamp: %w", err)
	}
	phase := Phase(w.Phase)
	if !phase.Valid() {
		return Event{}, fmt.Errorf("unknown audit phase %q", w.Phase)
	}
	return Event{
		ID:         w.ID,
		Timestamp:  ts,
		ActionID:   id.ActionID(w.ActionID),
		Phase:      phase,
		UserID:     id.UserID(w.UserID),
		FacilityID: id.FacilityID(w.FacilityID),
		Payload:    Payload(w.Payload),
		RequestID:  w.RequestID,
		IPAddress:  w.IPAddress,
		Device:     w.Device,
	}, nil
}
