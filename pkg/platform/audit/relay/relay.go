// Package relay delivers audit events from a local outbox to remote sinks.
//
// The action dispatcher only ever writes to the local store, so the outcome
// recorded for an invocation is decided there. Each remote destination gets
// its own relay, which forwards entries in append order and stops at the
// first failed delivery; the entry stays pending and is retried on the next
// pass. Delivery is at-least-once.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "carehub/pkg/platform/audit"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay drains one destination's outbox queue into a sink.
type Relay struct {
	outbox      audit.Outbox
	destination string
	sink        audit.Sink
	logger      *slog.Logger
	metrics     *Metrics
	interval    time.Duration
	batchSize   int
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// WithInterval sets the pause between passes. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize caps how many entries one query returns. Non-positive
// values are ignored.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// New creates a relay for destination.
func New(outbox audit.Outbox, destination string, sink audit.Sink, opts ...Option) *Relay {
	r := &Relay{
		outbox:      outbox,
		destination: destination,
		sink:        sink,
		logger:      slog.New(slog.DiscardHandler),
		interval:    defaultInterval,
		batchSize:   defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Destination returns the outbox queue this relay drains.
func (r *Relay) Destination() string {
	return r.destination
}

// Drain forwards pending entries until the queue is empty or a delivery
// fails. It returns how many entries were delivered.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	delivered := 0
	for {
		entries, err := r.outbox.Pending(ctx, r.destination, r.batchSize)
		if err != nil {
			return delivered, fmt.Errorf("read %s outbox: %w", r.destination, err)
		}
		if len(entries) == 0 {
			return delivered, nil
		}

		sent := make([]string, 0, len(entries))
		var sendErr error
		for _, entry := range entries {
			if err := r.sink.Append(ctx, entry.Event); err != nil {
				sendErr = fmt.Errorf("relay audit event %s to %s: %w", entry.Event.ID, r.destination, err)
				break
			}
			sent = append(sent, entry.ID)
		}

		if len(sent) > 0 {
			if err := r.outbox.MarkRelayed(ctx, r.destination, sent...); err != nil {
				return delivered, fmt.Errorf("mark %s outbox entries: %w", r.destination, err)
			}
			delivered += len(sent)
			r.metrics.addRelayed(r.destination, len(sent))
		}
		if sendErr != nil {
			r.metrics.incFailures(r.destination)
			return delivered, sendErr
		}
		if len(entries) < r.batchSize {
			return delivered, nil
		}
	}
}

// Run drains the queue on every tick until ctx is cancelled. Failures are
// logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.Drain(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			r.logger.WarnContext(ctx, "audit relay pass failed",
				"destination", r.destination,
				"delivered", n,
				"error", err,
			)
		case n > 0:
			r.logger.DebugContext(ctx, "audit events relayed",
				"destination", r.destination,
				"count", n,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
