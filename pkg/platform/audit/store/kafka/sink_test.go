package kafka

import (
	"context"
	"errors"
	"testing"

	audit "carehub/pkg/platform/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (p *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		p.records = append(p.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func TestSink_ProducesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	sink := New(producer, "")

	event := audit.Event{
		ID:       "3f1c2b7a-0d4e-4c55-9a61-5e3b2f7d8c90",
		ActionID: "thread.create",
		Phase:    audit.PhaseStart,
		UserID:   "user-1",
	}
	require.NoError(t, sink.Append(context.Background(), event))

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, DefaultTopic, rec.Topic)
	assert.Equal(t, []byte("user-1"), rec.Key)

	decoded, err := audit.Decode(rec.Value)
	require.NoError(t, err)
	assert.Equal(t, event.ActionID, decoded.ActionID)
	assert.Equal(t, event.ID, decoded.ID)
}

func TestSink_ProduceFailure(t *testing.T) {
	brokerErr := errors.New("not enough replicas")
	sink := New(&fakeProducer{err: brokerErr}, "audit")

	err := sink.Append(context.Background(), audit.Event{ActionID: "thread.create", Phase: audit.PhaseStart, UserID: "u"})
	assert.ErrorIs(t, err, brokerErr)
}
