// Package calendar schedules facility events.
package calendar

import (
	"time"

	id "carehub/pkg/domain"
)

type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventCancelled EventStatus = "cancelled"
)

// Event is a scheduled block on a facility calendar.
//
// Invariants:
//   - End is strictly after Start
//   - A cancelled event stays cancelled
type Event struct {
	ID          string        `json:"id"`
	FacilityID  id.FacilityID `json:"facilityId,omitempty"`
	Title       string        `json:"title"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Attendees   []id.UserID   `json:"attendees"`
	OrganizerID id.UserID     `json:"organizerId"`
	Status      EventStatus   `json:"status"`
	CancelledAt *time.Time    `json:"cancelledAt,omitempty"`
}

func (e *Event) ResultID() string {
	return e.ID
}

func (e *Event) IsCancelled() bool {
	return e.Status == EventCancelled
}

// CreateEventInput is the payload of calendar.event.create.
type CreateEventInput struct {
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Attendees []string  `json:"attendees"`
}

// CancelEventInput is the payload of calendar.event.cancel.
type CancelEventInput struct {
	EventID string `json:"eventId"`
}
