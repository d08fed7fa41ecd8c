package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	id "carehub/pkg/domain"
	audit "carehub/pkg/platform/audit"
	txcontext "carehub/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Schema creates the audit_events and audit_outbox tables. Deployments run it through their
// migration tool; integration tests execute it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT        NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	action_id   TEXT        NOT NULL,
	phase       TEXT        NOT NULL,
	user_id     TEXT        NOT NULL,
	facility_id TEXT        NOT NULL DEFAULT '',
	payload     JSONB       NOT NULL DEFAULT '{}'::jsonb,
	request_id  TEXT        NOT NULL DEFAULT '',
	ip_address  TEXT        NOT NULL DEFAULT '',
	device      TEXT        NOT NULL DEFAULT '',
	seq         BIGSERIAL
);
CREATE INDEX IF NOT EXISTS audit_events_user_idx ON audit_events (user_id, seq);
CREATE INDEX IF NOT EXISTS audit_events_action_idx ON audit_events (action_id, seq);
CREATE TABLE IF NOT EXISTS audit_outbox (
	id          BIGSERIAL PRIMARY KEY,
	event_id    UUID        NOT NULL,
	destination TEXT        NOT NULL,
	payload     BYTEA       NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	relayed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS audit_outbox_pending_idx ON audit_outbox (destination, id) WHERE relayed_at IS NULL;
`

// Store implements audit.Store on PostgreSQL using the transactional outbox
// pattern: each event row is written together with one outbox row per relay
// destination, and relays publish from the outbox. audit_events rows are
// append-only; the store never updates or deletes them.
type Store struct {
	db           *sql.DB
	destinations []string
}

// Option configures the Store.
type Option func(*Store)

// WithDestinations queues every appended event for each named destination.
func WithDestinations(names ...string) Option {
	return func(s *Store) {
		s.destinations = append(s.destinations, names...)
	}
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts an event and its outbox rows in one transaction, joining
// the context transaction when there is one. Events without an ID get a
// fresh one.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	if event.ID != "" {
		parsed, err := uuid.Parse(event.ID)
		if err != nil {
			return fmt.Errorf("parse audit event id: %w", err)
		}
		eventID = parsed
	}
	if len(s.destinations) == 0 {
		_, err := s.insertEvent(ctx, eventID, event)
		return err
	}

	event.ID = eventID.String()
	body, err := audit.Encode(event)
	if err != nil {
		return err
	}
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		inserted, err := s.insertEvent(ctx, eventID, event)
		if err != nil || !inserted {
			return err
		}
		for _, dest := range s.destinations {
			_, err := s.execer(ctx).ExecContext(ctx,
				`INSERT INTO audit_outbox (event_id, destination, payload) VALUES ($1, $2, $3)`,
				eventID, dest, body,
			)
			if err != nil {
				return fmt.Errorf("insert outbox entry: %w", err)
			}
		}
		return nil
	})
}

// AppendWithID inserts an event under a specific ID without queueing it for
// relay. Duplicate inserts are ignored, which makes replays from the event
// topic idempotent.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	_, err := s.insertEvent(ctx, eventID, event)
	return err
}

// insertEvent reports false when the id was already present.
func (s *Store) insertEvent(ctx context.Context, eventID uuid.UUID, event audit.Event) (bool, error) {
	payload, err := json.Marshal(event.Payload.Clone())
	if err != nil {
		return false, fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action_id, phase, user_id,
			facility_id, payload, request_id, ip_address, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(event.Category()),
		event.Timestamp,
		string(event.ActionID),
		string(event.Phase),
		string(event.UserID),
		string(event.FacilityID),
		payload,
		event.RequestID,
		event.IPAddress,
		event.Device,
	)
	if err != nil {
		return false, fmt.Errorf("insert audit event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert audit event: %w", err)
	}
	return n > 0, nil
}

// Pending returns up to limit unrelayed outbox entries for destination in
// insertion order.
func (s *Store) Pending(ctx context.Context, destination string, limit int) ([]audit.OutboxEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM audit_outbox
		WHERE destination = $1 AND relayed_at IS NULL
		ORDER BY id ASC
		LIMIT $2
	`, destination, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit outbox: %w", err)
	}
	defer rows.Close()

	entries := []audit.OutboxEntry{}
	for rows.Next() {
		var (
			entryID int64
			body    []byte
		)
		if err := rows.Scan(&entryID, &body); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		event, err := audit.Decode(body)
		if err != nil {
			return nil, fmt.Errorf("decode outbox entry %d: %w", entryID, err)
		}
		entries = append(entries, audit.OutboxEntry{ID: strconv.FormatInt(entryID, 10), Event: event})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit outbox: %w", err)
	}
	return entries, nil
}

// MarkRelayed stamps the given entries as delivered to destination.
func (s *Store) MarkRelayed(ctx context.Context, destination string, entryIDs ...string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(entryIDs))
	for _, raw := range entryIDs {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse outbox entry id %q: %w", raw, err)
		}
		ids = append(ids, n)
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE audit_outbox SET relayed_at = now()
		WHERE destination = $1 AND id = ANY($2) AND relayed_at IS NULL
	`, destination, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark outbox entries relayed: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, timestamp, action_id, phase, user_id, facility_id,
		   payload, request_id, ip_address, device
	FROM audit_events
`

// ListByUser returns events for a specific user in append order.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE user_id = $1 ORDER BY seq ASC`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByAction returns events for one action in append order.
func (s *Store) ListByAction(ctx context.Context, actionID id.ActionID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE action_id = $1 ORDER BY seq ASC`, string(actionID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	events := []audit.Event{}

	for rows.Next() {
		var (
			event      audit.Event
			eventID    uuid.UUID
			actionID   string
			phase      string
			userID     string
			facilityID string
			payload    []byte
		)
		err := rows.Scan(
			&eventID,
			&event.Timestamp,
			&actionID,
			&phase,
			&userID,
			&facilityID,
			&payload,
			&event.RequestID,
			&event.IPAddress,
			&event.Device,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("decode audit payload: %w", err)
			}
		}

		event.ID = eventID.String()
		event.ActionID = id.ActionID(actionID)
		event.Phase = audit.Phase(phase)
		event.UserID = id.UserID(userID)
		event.FacilityID = id.FacilityID(facilityID)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

var (
	_ audit.Store  = (*Store)(nil)
	_ audit.Outbox = (*Store)(nil)
)
