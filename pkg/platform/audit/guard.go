package audit

import (
	"context"
	"fmt"
	"log/slog"

	"carehub/pkg/platform/circuit"
)

// GuardedSink passes every write through to a remote sink and tracks its
// health with a breaker. Writes are never skipped: an open breaker only
// changes what Health reports.
type GuardedSink struct {
	sink    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// Guard wraps sink. name identifies the backend in logs and health output.
func Guard(name string, sink Sink, logger *slog.Logger, opts ...circuit.Option) *GuardedSink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GuardedSink{
		sink:    sink,
		breaker: circuit.New(name, opts...),
		logger:  logger,
	}
}

// Append implements Sink.
func (g *GuardedSink) Append(ctx context.Context, event Event) error {
	err := g.sink.Append(ctx, event)
	if err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.ErrorContext(ctx, "audit sink marked unhealthy",
				"sink", g.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "audit sink recovered", "sink", g.breaker.Name())
	}
	return nil
}

// Health fails while the breaker is open.
func (g *GuardedSink) Health(context.Context) error {
	if g.breaker.IsOpen() {
		return fmt.Errorf("audit sink %s is failing writes", g.breaker.Name())
	}
	return nil
}

var _ Sink = (*GuardedSink)(nil)
