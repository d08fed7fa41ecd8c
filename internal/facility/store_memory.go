package facility

import (
	"context"
	"sync"

	id "carehub/pkg/domain"
	"carehub/pkg/platform/sentinel"
)

// Store persists facility settings.
type Store interface {
	Find(ctx context.Context, facilityID id.FacilityID) (FacilitySettings, error)
	Save(ctx context.Context, settings FacilitySettings) error
}

type InMemoryStore struct {
	mu       sync.RWMutex
	settings map[id.FacilityID]FacilitySettings
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{settings: make(map[id.FacilityID]FacilitySettings)}
}

func (s *InMemoryStore) Find(_ context.Context, facilityID id.FacilityID) (FacilitySettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if fs, ok := s.settings[facilityID]; ok {
		return fs, nil
	}
	return FacilitySettings{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Save(_ context.Context, settings FacilitySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.FacilityID] = settings
	return nil
}

var _ Store = (*InMemoryStore)(nil)
