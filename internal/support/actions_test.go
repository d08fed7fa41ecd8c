package support

import (
	"context"
	"testing"

	"carehub/internal/action"
	"carehub/internal/claims"
	id "carehub/pkg/domain"
	dErrors "carehub/pkg/domain-errors"
	audit "carehub/pkg/platform/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTicket(t *testing.T) {
	store := NewInMemoryStore()
	actions := NewActions(store)
	d := action.NewDispatcher(action.MustRegistry(actions.Descriptors()...))
	ident := &claims.Identity{UID: "staff-1", Claims: claims.Claims{
		FacilityID:      "fac-1",
		UserPermissions: []string{PermissionCreateTickets},
	}}
	actx := action.NewContext(ident, audit.NoopRecorder{})

	t.Run("defaults priority to normal", func(t *testing.T) {
		ticket, err := action.Execute(context.Background(), d, actions.CreateTicket(),
			CreateTicketInput{Subject: "Printer offline", Body: "Ward B printer shows error 41"}, actx)
		require.NoError(t, err)
		assert.Equal(t, PriorityNormal, ticket.Priority)
		assert.Equal(t, TicketOpen, ticket.Status)
		assert.Equal(t, id.UserID("staff-1"), ticket.ReporterID)
	})

	t.Run("normalizes priority case", func(t *testing.T) {
		ticket, err := action.Execute(context.Background(), d, actions.CreateTicket(),
			CreateTicketInput{Subject: "Login loop", Body: "Cannot sign in", Priority: "URGENT"}, actx)
		require.NoError(t, err)
		assert.Equal(t, PriorityUrgent, ticket.Priority)
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		_, err := action.Execute(context.Background(), d, actions.CreateTicket(),
			CreateTicketInput{Subject: "s", Body: "b", Priority: "whenever"}, actx)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("requires subject and body", func(t *testing.T) {
		_, err := action.Execute(context.Background(), d, actions.CreateTicket(), CreateTicketInput{Body: "b"}, actx)
		assert.EqualError(t, err, "subject is required")
		_, err = action.Execute(context.Background(), d, actions.CreateTicket(), CreateTicketInput{Subject: "s", Body: "  "}, actx)
		assert.EqualError(t, err, "body is required")
	})

	tickets, err := store.ListByReporter(context.Background(), "staff-1")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}
