package messaging

import (
	"context"
	"slices"
	"sync"

	"carehub/pkg/platform/sentinel"
)

// Store persists threads and their messages.
type Store interface {
	SaveThread(ctx context.Context, thread Thread) error
	FindThread(ctx context.Context, threadID string) (Thread, error)
	AppendMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}

type InMemoryStore struct {
	mu       sync.RWMutex
	threads  map[string]Thread
	messages map[string][]Message
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		threads:  make(map[string]Thread),
		messages: make(map[string][]Message),
	}
}

func (s *InMemoryStore) SaveThread(_ context.Context, thread Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread.Participants = slices.Clone(thread.Participants)
	s.threads[thread.ID] = thread
	return nil
}

func (s *InMemoryStore) FindThread(_ context.Context, threadID string) (Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[threadID]
	if !ok {
		return Thread{}, sentinel.ErrNotFound
	}
	thread.Participants = slices.Clone(thread.Participants)
	return thread, nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[msg.ThreadID]; !ok {
		return sentinel.ErrNotFound
	}
	s.messages[msg.ThreadID] = append(s.messages[msg.ThreadID], msg)
	return nil
}

// ListMessages returns a thread's messages oldest first.
func (s *InMemoryStore) ListMessages(_ context.Context, threadID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.threads[threadID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return slices.Clone(s.messages[threadID]), nil
}

var _ Store = (*InMemoryStore)(nil)
