package authz

import (
	"context"
	"sync"
)

var _ OwnershipStore = (*InMemoryStore)(nil)

// InMemoryStore holds ownership projections in process. Used by tests and
// the smoke binary; production deployments run the Postgres store.
type InMemoryStore struct {
	mu     sync.RWMutex
	owners map[ResourceType]map[string]string
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{owners: make(map[ResourceType]map[string]string)}
}

// SetOwner records that ownerID owns the given resource.
func (s *InMemoryStore) SetOwner(rt ResourceType, id, ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.owners[rt]
	if !ok {
		m = make(map[string]string)
		s.owners[rt] = m
	}
	m[id] = ownerID
}

// Remove deletes a resource projection.
func (s *InMemoryStore) Remove(rt ResourceType, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owners[rt], id)
}

func (s *InMemoryStore) GetOwner(ctx context.Context, rt ResourceType, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[rt][id]
	if !ok {
		return "", ErrNotFound
	}
	return owner, nil
}

func (s *InMemoryStore) GetOwners(ctx context.Context, rt ResourceType, ids []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if owner, ok := s.owners[rt][id]; ok {
			out[id] = owner
		}
	}
	return out, nil
}
