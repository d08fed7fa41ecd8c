// Package publisher provides the fail-closed audit publisher used by the
// action dispatcher.
//
// Emit is synchronous: the caller blocks until the sink accepts the event, and
// a sink failure is returned to the caller. The dispatcher treats that error
// like any other failure of an awaited step.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "carehub/pkg/platform/audit"

	"github.com/google/uuid"
)

// Publisher validates, stamps and persists audit events.
type Publisher struct {
	sink    audit.Sink
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// New creates a publisher writing to sink.
func New(sink audit.Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:  sink,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Append implements audit.Sink so a Publisher can sit in front of any sink.
func (p *Publisher) Append(ctx context.Context, event audit.Event) error {
	return p.Emit(ctx, event)
}

// Emit synchronously writes one event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.ActionID == "" {
		return fmt.Errorf("audit event requires ActionID")
	}
	if !event.Phase.Valid() {
		return fmt.Errorf("audit event has invalid phase %q", event.Phase)
	}
	if event.UserID.IsNil() {
		return fmt.Errorf("audit event requires UserID")
	}

	if event.ID == "" {
		event.ID = p.newID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	if err := p.sink.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures(event.Phase)
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: audit persistence failed",
				"action_id", event.ActionID,
				"phase", event.Phase,
				"user_id", event.UserID,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted(event.Phase, event.Category())
	}
	return nil
}

var _ audit.Sink = (*Publisher)(nil)
