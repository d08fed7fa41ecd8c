package support

import (
	"context"
	"fmt"
	"strings"

	"carehub/internal/action"
	dErrors "carehub/pkg/domain-errors"
	"carehub/pkg/requestcontext"

	"github.com/google/uuid"
)

// PermissionCreateTickets gates ticket creation.
const PermissionCreateTickets = "CREATE_SUPPORT_TICKETS"

const ActionCreateTicket = "support.ticket.create"

const (
	maxSubjectLength = 200
	maxBodyLength    = 20_000
)

type Actions struct {
	store Store
}

func NewActions(store Store) *Actions {
	return &Actions{store: store}
}

func (a *Actions) CreateTicket() action.Action[CreateTicketInput, *Ticket] {
	return action.Define(ActionCreateTicket, PermissionCreateTickets, a.createTicket).
		Describe("Open a support ticket")
}

func (a *Actions) Descriptors() []action.Descriptor {
	return []action.Descriptor{a.CreateTicket().Descriptor()}
}

func (a *Actions) createTicket(ctx context.Context, in CreateTicketInput, actx *action.Context) (*Ticket, error) {
	subject := strings.TrimSpace(in.Subject)
	body := strings.TrimSpace(in.Body)
	switch {
	case subject == "":
		return nil, dErrors.New(dErrors.CodeValidation, "subject is required")
	case len(subject) > maxSubjectLength:
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("subject exceeds %d characters", maxSubjectLength))
	case body == "":
		return nil, dErrors.New(dErrors.CodeValidation, "body is required")
	case len(body) > maxBodyLength:
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("body exceeds %d characters", maxBodyLength))
	}

	priority := Priority(strings.ToLower(strings.TrimSpace(string(in.Priority))))
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown priority %q", in.Priority))
	}

	ticket := &Ticket{
		ID:         uuid.NewString(),
		FacilityID: actx.FacilityID,
		ReporterID: actx.UserID,
		Subject:    subject,
		Body:       body,
		Priority:   priority,
		Status:     TicketOpen,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := a.store.Create(ctx, *ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	return ticket, nil
}
