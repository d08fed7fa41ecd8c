package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	audit "carehub/pkg/platform/audit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type recordingStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]audit.Event
	err    error
}

func (s *recordingStore) AppendWithID(_ context.Context, eventID uuid.UUID, event audit.Event) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events == nil {
		s.events = map[uuid.UUID]audit.Event{}
	}
	s.events[eventID] = event
	return nil
}

type fakeFetcher struct {
	batches   []kgo.Fetches
	committed []*kgo.Record
	cancel    context.CancelFunc
}

func (f *fakeFetcher) PollFetches(context.Context) kgo.Fetches {
	if len(f.batches) == 0 {
		f.cancel()
		return kgo.Fetches{}
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next
}

func (f *fakeFetcher) CommitRecords(_ context.Context, rs ...*kgo.Record) error {
	f.committed = append(f.committed, rs...)
	return nil
}

func encodedRecord(t *testing.T, offset int64) (*kgo.Record, uuid.UUID) {
	t.Helper()
	eventID := uuid.New()
	body, err := audit.Encode(audit.Event{
		ID:       eventID.String(),
		ActionID: "thread.create",
		Phase:    audit.PhaseStart,
		UserID:   "user-1",
	})
	require.NoError(t, err)
	return &kgo.Record{Topic: "carehub.audit", Value: body, Offset: offset}, eventID
}

func fetchesOf(records ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "carehub.audit",
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: records}},
	}}}}
}

func TestWorker_RunMaterializesAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, firstID := encodedRecord(t, 0)
	second, secondID := encodedRecord(t, 1)
	fetcher := &fakeFetcher{batches: []kgo.Fetches{fetchesOf(first, second)}, cancel: cancel}
	store := &recordingStore{}

	err := NewWorker(fetcher, store, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Contains(t, store.events, firstID)
	assert.Contains(t, store.events, secondID)
	assert.Len(t, fetcher.committed, 2)
}

func TestWorker_SkipsPoisonRecords(t *testing.T) {
	good, goodID := encodedRecord(t, 1)
	poison := &kgo.Record{Topic: "carehub.audit", Value: []byte("not json"), Offset: 0}
	fetcher := &fakeFetcher{}
	store := &recordingStore{}

	require.NoError(t, NewWorker(fetcher, store, nil).ProcessBatch(context.Background(), []*kgo.Record{poison, good}))

	assert.Len(t, store.events, 1)
	assert.Contains(t, store.events, goodID)
	assert.Len(t, fetcher.committed, 2, "poison records are committed past")
}

func TestWorker_StoreFailureStopsBeforeCommit(t *testing.T) {
	rec, _ := encodedRecord(t, 0)
	fetcher := &fakeFetcher{}
	store := &recordingStore{err: errors.New("db down")}

	err := NewWorker(fetcher, store, nil).ProcessBatch(context.Background(), []*kgo.Record{rec})
	require.Error(t, err)
	assert.Empty(t, fetcher.committed)
}
