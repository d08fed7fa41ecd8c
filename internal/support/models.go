// Package support files tickets with the carehub support desk.
package support

import (
	"time"

	id "carehub/pkg/domain"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type TicketStatus string

const TicketOpen TicketStatus = "open"

type Ticket struct {
	ID         string        `json:"id"`
	FacilityID id.FacilityID `json:"facilityId,omitempty"`
	ReporterID id.UserID     `json:"reporterId"`
	Subject    string        `json:"subject"`
	Body       string        `json:"body"`
	Priority   Priority      `json:"priority"`
	Status     TicketStatus  `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func (t *Ticket) ResultID() string {
	return t.ID
}

// CreateTicketInput is the payload of support.ticket.create. An empty
// priority means normal.
type CreateTicketInput struct {
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Priority Priority `json:"priority,omitempty"`
}
