package profile

import (
	"context"
	"sync"
	"time"
)

// Store is the durable profile interface the dialogue engine depends on.
// Get creates a default profile on first access.
type Store interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
}

// InMemoryStore keeps profiles in a map. Used in tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]*Profile)}
}

// Get returns the stored profile, creating a default one on first access.
func (s *InMemoryStore) Get(_ context.Context, userID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		clone := *p
		return &clone, nil
	}
	p := NewProfile(userID)
	clone := *p
	s.profiles[userID] = p
	return &clone, nil
}

// Update overwrites the stored profile.
func (s *InMemoryStore) Update(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	clone := *p
	s.profiles[p.UserID] = &clone
	return nil
}
