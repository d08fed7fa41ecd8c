package support

import (
	"context"
	"sync"

	id "carehub/pkg/domain"
	"carehub/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, ticket Ticket) error
	Find(ctx context.Context, ticketID string) (Ticket, error)
	ListByReporter(ctx context.Context, reporterID id.UserID) ([]Ticket, error)
}

type InMemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
	order   []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tickets: make(map[string]Ticket)}
}

func (s *InMemoryStore) Create(_ context.Context, ticket Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tickets[ticket.ID]; exists {
		return sentinel.ErrConflict
	}
	s.tickets[ticket.ID] = ticket
	s.order = append(s.order, ticket.ID)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, ticketID string) (Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tickets[ticketID]; ok {
		return t, nil
	}
	return Ticket{}, sentinel.ErrNotFound
}

// ListByReporter returns a reporter's tickets in creation order.
func (s *InMemoryStore) ListByReporter(_ context.Context, reporterID id.UserID) ([]Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Ticket
	for _, ticketID := range s.order {
		if t := s.tickets[ticketID]; t.ReporterID == reporterID {
			out = append(out, t)
		}
	}
	return out, nil
}

var _ Store = (*InMemoryStore)(nil)
