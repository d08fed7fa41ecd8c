//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "carehub/pkg/domain"
	audit "carehub/pkg/platform/audit"
	"carehub/pkg/platform/audit/store/postgres"
	txcontext "carehub/pkg/platform/tx"
	"carehub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	outbox   *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(s.postgres.Exec(context.Background(), postgres.Schema))
	s.store = postgres.New(s.postgres.DB)
	s.outbox = postgres.New(s.postgres.DB, postgres.WithDestinations("redis", "kafka"))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events", "audit_outbox"))
}

func newEvent(actionID id.ActionID, phase audit.Phase, userID id.UserID, payload audit.Payload) audit.Event {
	return audit.Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		ActionID:   actionID,
		Phase:      phase,
		UserID:     userID,
		FacilityID: "fac-1",
		Payload:    payload,
		RequestID:  "req-1",
		IPAddress:  "10.0.0.7",
		Device:     "Firefox on Linux",
	}
}

func (s *PostgresStoreSuite) TestAppendAndListByUser() {
	ctx := context.Background()
	start := newEvent("thread.create", audit.PhaseStart, "user-1", audit.Payload{"input": map[string]any{"title": "Night shift"}})
	success := newEvent("thread.create", audit.PhaseSuccess, "user-1", audit.Payload{audit.PayloadResultID: "thread-9"})
	other := newEvent("thread.create", audit.PhaseStart, "user-2", nil)

	for _, e := range []audit.Event{start, success, other} {
		s.Require().NoError(s.store.Append(ctx, e))
	}

	events, err := s.store.ListByUser(ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(start.ID, events[0].ID)
	s.Equal(audit.PhaseStart, events[0].Phase)
	s.Equal(map[string]any{"title": "Night shift"}, events[0].Payload["input"])
	s.Equal("thread-9", events[1].Payload[audit.PayloadResultID])
	s.Equal("10.0.0.7", events[1].IPAddress)
	s.Equal(id.FacilityID("fac-1"), events[1].FacilityID)
	s.WithinDuration(success.Timestamp, events[1].Timestamp, time.Millisecond)

	empty, err := s.store.ListByUser(ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *PostgresStoreSuite) TestAppendWithIDIsIdempotent() {
	ctx := context.Background()
	event := newEvent("calendar.event.create", audit.PhaseStart, "user-1", nil)
	eventID := uuid.MustParse(event.ID)

	s.Require().NoError(s.store.AppendWithID(ctx, eventID, event))
	s.Require().NoError(s.store.AppendWithID(ctx, eventID, event))

	events, err := s.store.ListByAction(ctx, "calendar.event.create")
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *PostgresStoreSuite) TestAppendRejectsMalformedID() {
	event := newEvent("thread.reply", audit.PhaseStart, "user-1", nil)
	event.ID = "not-a-uuid"
	s.Error(s.store.Append(context.Background(), event))
}

func (s *PostgresStoreSuite) TestListRecentNewestFirst() {
	ctx := context.Background()
	for _, phase := range []audit.Phase{audit.PhaseStart, audit.PhaseSuccess, audit.PhaseStart} {
		s.Require().NoError(s.store.Append(ctx, newEvent("support.ticket.create", phase, "user-1", nil)))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.PhaseStart, events[0].Phase)
	s.Equal(audit.PhaseSuccess, events[1].Phase)
}

func (s *PostgresStoreSuite) TestAppendJoinsContextTransaction() {
	ctx := context.Background()
	event := newEvent("thread.archive", audit.PhaseError, "user-1", audit.Payload{
		audit.PayloadReason: audit.ReasonAccessDenied,
		audit.PayloadUser:   "user-1",
	})

	err := txcontext.Run(ctx, s.postgres.DB, func(ctx context.Context) error {
		s.Require().NoError(s.store.Append(ctx, event))
		return context.Canceled
	})
	s.ErrorIs(err, context.Canceled)

	events, err := s.store.ListByUser(ctx, "user-1")
	s.Require().NoError(err)
	s.Empty(events, "rolled back with the surrounding transaction")
}

func (s *PostgresStoreSuite) TestAppendQueuesOutboxPerDestination() {
	ctx := context.Background()
	start := newEvent("thread.create", audit.PhaseStart, "user-1", audit.Payload{"input": map[string]any{"title": "Handover"}})
	success := newEvent("thread.create", audit.PhaseSuccess, "user-1", audit.Payload{audit.PayloadResultID: "thread-3"})
	s.Require().NoError(s.outbox.Append(ctx, start))
	s.Require().NoError(s.outbox.Append(ctx, success))

	pending, err := s.outbox.Pending(ctx, "redis", 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(start.ID, pending[0].Event.ID)
	s.Equal(audit.PhaseSuccess, pending[1].Event.Phase)
	s.Equal("thread-3", pending[1].Event.Payload[audit.PayloadResultID])

	s.Require().NoError(s.outbox.MarkRelayed(ctx, "redis", pending[0].ID))

	rest, err := s.outbox.Pending(ctx, "redis", 10)
	s.Require().NoError(err)
	s.Require().Len(rest, 1)
	s.Equal(success.ID, rest[0].Event.ID)

	kafka, err := s.outbox.Pending(ctx, "kafka", 10)
	s.Require().NoError(err)
	s.Len(kafka, 2, "each destination keeps its own queue")
}

func (s *PostgresStoreSuite) TestAppendReplayDoesNotRequeue() {
	ctx := context.Background()
	event := newEvent("support.ticket.create", audit.PhaseStart, "user-1", nil)
	s.Require().NoError(s.outbox.Append(ctx, event))
	s.Require().NoError(s.outbox.Append(ctx, event))

	pending, err := s.outbox.Pending(ctx, "kafka", 10)
	s.Require().NoError(err)
	s.Len(pending, 1)
}

func (s *PostgresStoreSuite) TestOutboxRollsBackWithEvent() {
	ctx := context.Background()
	event := newEvent("calendar.event.cancel", audit.PhaseSuccess, "user-1", nil)

	err := txcontext.Run(ctx, s.postgres.DB, func(ctx context.Context) error {
		s.Require().NoError(s.outbox.Append(ctx, event))
		return context.Canceled
	})
	s.ErrorIs(err, context.Canceled)

	events, err := s.outbox.ListByUser(ctx, "user-1")
	s.Require().NoError(err)
	s.Empty(events)
	pending, err := s.outbox.Pending(ctx, "redis", 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *PostgresStoreSuite) TestMarkRelayedRejectsMalformedID() {
	s.Error(s.outbox.MarkRelayed(context.Background(), "redis", "first"))
}
