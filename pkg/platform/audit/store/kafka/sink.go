// Package kafka publishes audit events to a Kafka topic.
package kafka

import (
	"context"
	"fmt"

	audit "carehub/pkg/platform/audit"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "carehub.audit"

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink produces one record per event, keyed by user id so that one caller's
// records stay ordered within a partition.
type Sink struct {
	producer Producer
	topic    string
}

// New creates a topic sink.
func New(producer Producer, topic string) *Sink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Sink{producer: producer, topic: topic}
}

// Append implements audit.Sink. It waits for the broker acknowledgement.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	body, err := audit.Encode(event)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.UserID),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "action_id", Value: []byte(event.ActionID)},
			{Key: "phase", Value: []byte(event.Phase)},
			{Key: "category", Value: []byte(event.Category())},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

var _ audit.Sink = (*Sink)(nil)
