package account

import (
	"context"
	"sync"
	"time"

	"gigbook.org/internal/ids"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore keeps accounts in process with the same atomicity
// guarantees as the SQL store. Used by tests and the smoke binary.
type InMemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*Account
	byEmail map[string]string
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]string),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	if a.Status == "" {
		a.Status = "active"
	}
	if _, ok := s.byID[a.ID]; ok {
		return ErrAlreadyExists
	}
	if _, ok := s.byEmail[a.Email]; ok {
		return ErrAlreadyExists
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	s.byID[a.ID] = &cp
	s.byEmail[a.Email] = a.ID
	return nil
}

func (s *InMemoryStore) Find(ctx context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *InMemoryStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return s.findLocked(id)
}

func (s *InMemoryStore) findLocked(id string) (*Account, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	if a.LockoutEnd != nil {
		t := *a.LockoutEnd
		cp.LockoutEnd = &t
	}
	return &cp, nil
}

func (s *InMemoryStore) IncrementFailureCount(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[userID]
	if !ok {
		return 0, ErrNotFound
	}
	a.FailedLoginAttempts++
	a.UpdatedAt = time.Now().UTC()
	return a.FailedLoginAttempts, nil
}

func (s *InMemoryStore) ResetFailureCount(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	a.FailedLoginAttempts = 0
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) GetFailureCount(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return a.FailedLoginAttempts, nil
}

func (s *InMemoryStore) SetLockoutUntil(ctx context.Context, userID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	t := until.UTC()
	a.LockoutEnd = &t
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) GetLockoutUntil(ctx context.Context, userID string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if a.LockoutEnd == nil {
		return nil, nil
	}
	t := *a.LockoutEnd
	return &t, nil
}
