// Package admintest provides an in-memory admin.Store for tests.
package admintest

import (
	"context"
	"sync"
	"time"

	"github.com/2beens/portfolio/internal/admin"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mutex  sync.Mutex
	admins map[string]admin.Administrator

	// FailWith, when set, is returned by every call.
	FailWith error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		admins: make(map[string]admin.Administrator),
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*admin.Administrator, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	email = admin.NormalizeEmail(email)
	for _, a := range s.admins {
		if a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, admin.ErrAdminNotFound
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*admin.Administrator, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	a, ok := s.admins[id]
	if !ok {
		return nil, admin.ErrAdminNotFound
	}
	return &a, nil
}

func (s *MemoryStore) Save(_ context.Context, a *admin.Administrator) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}

	a.Email = admin.NormalizeEmail(a.Email)
	for id, existing := range s.admins {
		if existing.Email == a.Email && id != a.ID {
			return admin.ErrEmailTaken
		}
	}

	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = admin.RoleAdmin
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	s.admins[a.ID] = *a
	return nil
}

func (s *MemoryStore) Delete(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.admins, id)
}

func (s *MemoryStore) Count() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.admins)
}
