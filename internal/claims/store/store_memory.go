// Package store persists permission grants per user and facility.
package store

import (
	"context"
	"slices"
	"sync"

	id "carehub/pkg/domain"
)

type grantKey struct {
	user     id.UserID
	facility id.FacilityID
}

// InMemoryGrantStore keeps grants in insertion order.
type InMemoryGrantStore struct {
	mu     sync.RWMutex
	grants map[grantKey][]string
}

func NewInMemoryGrantStore() *InMemoryGrantStore {
	return &InMemoryGrantStore{grants: make(map[grantKey][]string)}
}

// Permissions returns a copy of the user's grants in the facility.
func (s *InMemoryGrantStore) Permissions(_ context.Context, userID id.UserID, facilityID id.FacilityID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.grants[grantKey{userID, facilityID}]), nil
}

// Grant adds permission unless already present.
func (s *InMemoryGrantStore) Grant(_ context.Context, userID id.UserID, facilityID id.FacilityID, permission id.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey{userID, facilityID}
	if slices.Contains(s.grants[key], string(permission)) {
		return nil
	}
	s.grants[key] = append(s.grants[key], string(permission))
	return nil
}

// Revoke removes permission if present.
func (s *InMemoryGrantStore) Revoke(_ context.Context, userID id.UserID, facilityID id.FacilityID, permission id.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey{userID, facilityID}
	s.grants[key] = slices.DeleteFunc(s.grants[key], func(p string) bool { return p == string(permission) })
	return nil
}
