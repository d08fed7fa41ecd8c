package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"

	id "carehub/pkg/domain"
	audit "carehub/pkg/platform/audit"
)

// InMemoryStore keeps audit events in append order. Used by tests and by
// single-process deployments without a database. With destinations
// configured it also acts as the outbox for relayed sinks.
type InMemoryStore struct {
	mu           sync.RWMutex
	events       []audit.Event
	destinations []string
	pending      map[string][]audit.OutboxEntry
	seq          uint64
}

// Option configures the InMemoryStore.
type Option func(*InMemoryStore)

// WithDestinations queues every appended event for each named destination.
func WithDestinations(names ...string) Option {
	return func(s *InMemoryStore) {
		s.destinations = append(s.destinations, names...)
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{pending: make(map[string][]audit.OutboxEntry)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	clear(s.pending)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.Payload = event.Payload.Clone()
	s.events = append(s.events, event)

	s.seq++
	entryID := strconv.FormatUint(s.seq, 10)
	for _, dest := range s.destinations {
		s.pending[dest] = append(s.pending[dest], audit.OutboxEntry{ID: entryID, Event: event})
	}
	return nil
}

// Pending returns up to limit undelivered entries for destination, oldest first.
func (s *InMemoryStore) Pending(_ context.Context, destination string, limit int) ([]audit.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queue := s.pending[destination]
	if limit > 0 && len(queue) > limit {
		queue = queue[:limit]
	}
	return slices.Clone(queue), nil
}

// MarkRelayed drops the given entries from destination's queue.
func (s *InMemoryStore) MarkRelayed(_ context.Context, destination string, entryIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[destination] = slices.DeleteFunc(s.pending[destination], func(e audit.OutboxEntry) bool {
		return slices.Contains(entryIDs, e.ID)
	})
	return nil
}

// All returns every event in append order.
func (s *InMemoryStore) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// Len returns the number of recorded events.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]audit.Event, error) {
	return s.filter(func(e audit.Event) bool { return e.UserID == userID }), nil
}

func (s *InMemoryStore) ListByAction(_ context.Context, actionID id.ActionID) ([]audit.Event, error) {
	return s.filter(func(e audit.Event) bool { return e.ActionID == actionID }), nil
}

// ListRecent returns the most recent N events, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.events) - limit
	if start < 0 || limit <= 0 {
		start = 0
	}
	recent := slices.Clone(s.events[start:])
	slices.Reverse(recent)
	return recent, nil
}

func (s *InMemoryStore) filter(keep func(audit.Event) bool) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []audit.Event{}
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

var (
	_ audit.Store  = (*InMemoryStore)(nil)
	_ audit.Outbox = (*InMemoryStore)(nil)
)
