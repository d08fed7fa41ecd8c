// Package worker materializes audit events from the audit topic into the
// queryable store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	audit "carehub/pkg/platform/audit"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Fetcher is the subset of *kgo.Client the worker consumes with.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
}

// Materializer stores an event under the id it was published with.
type Materializer interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Worker polls the audit topic and writes each record to the store, then
// commits the batch. Inserts are idempotent, so a crash between insert and
// commit only causes harmless redelivery.
type Worker struct {
	fetcher Fetcher
	store   Materializer
	logger  *slog.Logger
}

func NewWorker(fetcher Fetcher, store Materializer, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{fetcher: fetcher, store: store, logger: logger}
}

// Run blocks until ctx is cancelled or the client is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches := w.fetcher.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) || errors.Is(fe.Err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			w.logger.WarnContext(ctx, "audit fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}
		if err := w.ProcessBatch(ctx, fetches.Records()); err != nil {
			return err
		}
	}
}

// ProcessBatch materializes records and commits them.
func (w *Worker) ProcessBatch(ctx context.Context, records []*kgo.Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		event, err := audit.Decode(rec.Value)
		if err != nil {
			// Poison records are skipped; they can never decode.
			w.logger.ErrorContext(ctx, "skipping undecodable audit record",
				"topic", rec.Topic,
				"partition", rec.Partition,
				"offset", rec.Offset,
				"error", err,
			)
			continue
		}
		eventID, err := uuid.Parse(event.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "skipping audit record without valid id",
				"offset", rec.Offset,
				"event_id", event.ID,
			)
			continue
		}
		if err := w.store.AppendWithID(ctx, eventID, event); err != nil {
			return fmt.Errorf("materialize audit event %s: %w", eventID, err)
		}
	}
	if err := w.fetcher.CommitRecords(ctx, records...); err != nil {
		return fmt.Errorf("commit audit offsets: %w", err)
	}
	return nil
}
