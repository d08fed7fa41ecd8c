// Package redisstream appends audit events to a Redis stream.
package redisstream

import (
	"context"
	"fmt"

	audit "carehub/pkg/platform/audit"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is used when no stream name is configured.
const DefaultStream = "carehub:audit"

// Sink writes each event as one stream entry with fields
// action_id, phase, user_id and event (the encoded record).
type Sink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// Option configures the Sink.
type Option func(*Sink)

// WithMaxLen caps the stream length (approximate trimming).
func WithMaxLen(n int64) Option {
	return func(s *Sink) {
		s.maxLen = n
	}
}

// New creates a stream sink.
func New(client *redis.Client, stream string, opts ...Option) *Sink {
	if stream == "" {
		stream = DefaultStream
	}
	s := &Sink{client: client, stream: stream}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append implements audit.Sink.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	body, err := audit.Encode(event)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"action_id": string(event.ActionID),
			"phase":     string(event.Phase),
			"user_id":   string(event.UserID),
			"event":     body,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd audit event: %w", err)
	}
	return nil
}

// Read returns up to count entries after lastID ("0" for the beginning),
// decoded back into events. Used by operators and tests.
func (s *Sink) Read(ctx context.Context, lastID string, count int64) ([]audit.Event, string, error) {
	start := "-"
	if lastID != "" && lastID != "0" {
		start = "(" + lastID
	}
	res, err := s.client.XRangeN(ctx, s.stream, start, "+", count).Result()
	if err != nil {
		return nil, lastID, fmt.Errorf("xrange audit stream: %w", err)
	}

	events := make([]audit.Event, 0, len(res))
	for _, msg := range res {
		raw, ok := msg.Values["event"].(string)
		if !ok {
			return nil, lastID, fmt.Errorf("stream entry %s has no event field", msg.ID)
		}
		event, err := audit.Decode([]byte(raw))
		if err != nil {
			return nil, lastID, err
		}
		events = append(events, event)
		lastID = msg.ID
	}
	return events, lastID, nil
}

var _ audit.Sink = (*Sink)(nil)
