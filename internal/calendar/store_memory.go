package calendar

import (
	"context"
	"slices"
	"sync"

	"carehub/pkg/platform/sentinel"
)

type Store interface {
	Save(ctx context.Context, event Event) error
	Find(ctx context.Context, eventID string) (Event, error)
}

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string]Event)}
}

func (s *InMemoryStore) Save(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.Attendees = slices.Clone(event.Attendees)
	s.events[event.ID] = event
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, eventID string) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[eventID]
	if !ok {
		return Event{}, sentinel.ErrNotFound
	}
	event.Attendees = slices.Clone(event.Attendees)
	return event, nil
}

var _ Store = (*InMemoryStore)(nil)
