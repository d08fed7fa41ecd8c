package audit

import (
	"maps"
	"time"

	id "carehub/pkg/domain"
)

// Phase marks where in an action's lifecycle an event was recorded.
type Phase string

const (
	PhaseStart   Phase = "START"
	PhaseSuccess Phase = "SUCCESS"
	PhaseError   Phase = "ERROR"
)

// Valid reports whether p is one of the three lifecycle phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseStart, PhaseSuccess, PhaseError:
		return true
	}
	return false
}

// EventCategory classifies audit events by their primary purpose so sinks can
// route and retain them differently.
type EventCategory string

const (
	// CategorySecurity covers denied attempts; these feed alerting.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers the regular START/SUCCESS/ERROR trail.
	CategoryOperations EventCategory = "operations"
)

// Payload keys written by the action dispatcher.
const (
	PayloadInput    = "input"
	PayloadResultID = "resultId"
	PayloadError    = "error"
	PayloadReason   = "reason"
	PayloadUser     = "user"
)

// ReasonAccessDenied is the payload reason recorded for permission denials.
const ReasonAccessDenied = "Access Denied"

// Payload is the free-form body of one audit record.
type Payload map[string]any

// Clone returns a shallow copy so a recorded payload can't be mutated by the caller.
func (p Payload) Clone() Payload {
	if p == nil {
		return Payload{}
	}
	return maps.Clone(p)
}

// Event is one append-only audit record: a single phase of a single action
// invocation, attributed to the identity the recorder was bound to.
type Event struct {
	ID         string
	Timestamp  time.Time
	ActionID   id.ActionID
	Phase      Phase
	UserID     id.UserID
	FacilityID id.FacilityID
	Payload    Payload
	// RequestID correlates the records of one HTTP request.
	RequestID string
	// IPAddress is only known on server-side paths.
	IPAddress string
	Device    string
}

// Category derives the routing category from the phase and payload.
func (e Event) Category() EventCategory {
	if e.Phase == PhaseError {
		if reason, _ := e.Payload[PayloadReason].(string); reason == ReasonAccessDenied {
			return CategorySecurity
		}
	}
	return CategoryOperations
}
