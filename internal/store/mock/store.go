// Package mock provides an in-memory Store for testing. It reproduces the
// credential write discipline of the Postgres implementation (first-add
// auto-activation, clear-then-set activation, promotion on delete) so the
// components above it can be tested without a database.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/dataforge-ai/dataforge/internal/store"
	"github.com/dataforge-ai/dataforge/pkg/models"
	"github.com/google/uuid"
)

// Store satisfies store.Store with in-memory maps. The Err* fields inject
// failures: when set, the corresponding method returns that error.
type Store struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
	creds map[uuid.UUID]*models.Credential

	ErrCreateUser       error
	ErrGetUser          error
	ErrCreateCredential error
	ErrList             error
	ErrGetActive        error
	ErrSetActive        error
	ErrDelete           error

	// GetActiveCalls counts GetActiveCredential invocations.
	GetActiveCalls int
}

func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]*models.User),
		creds: make(map[uuid.UUID]*models.Credential),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if s.ErrCreateUser != nil {
		return s.ErrCreateUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.ErrGetUser != nil {
		return nil, s.ErrGetUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateCredential(ctx context.Context, cred *models.Credential) error {
	if s.ErrCreateCredential != nil {
		return s.ErrCreateCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cred.IsActive = len(s.ownedLocked(cred.OwnerID)) == 0
	cp := *cred
	s.creds[cred.ID] = &cp
	return nil
}

func (s *Store) ListCredentials(ctx context.Context, ownerID uuid.UUID) ([]*models.Credential, error) {
	if s.ErrList != nil {
		return nil, s.ErrList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := s.ownedLocked(ownerID)
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	out := make([]*models.Credential, len(owned))
	for i, c := range owned {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

func (s *Store) GetActiveCredential(ctx context.Context, ownerID uuid.UUID) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetActiveCalls++
	if s.ErrGetActive != nil {
		return nil, s.ErrGetActive
	}
	for _, c := range s.ownedLocked(ownerID) {
		if c.IsActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) SetActiveCredential(ctx context.Context, ownerID, id uuid.UUID) error {
	if s.ErrSetActive != nil {
		return s.ErrSetActive
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.creds[id]
	if !ok || target.OwnerID != ownerID {
		return store.ErrNotFound
	}
	for _, c := range s.ownedLocked(ownerID) {
		c.IsActive = false
	}
	target.IsActive = true
	return nil
}

func (s *Store) DeleteCredential(ctx context.Context, ownerID, id uuid.UUID) error {
	if s.ErrDelete != nil {
		return s.ErrDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.creds[id]
	if !ok || target.OwnerID != ownerID {
		return store.ErrNotFound
	}
	wasActive := target.IsActive
	delete(s.creds, id)
	if !wasActive {
		return nil
	}
	remaining := s.ownedLocked(ownerID)
	if len(remaining) == 0 {
		return nil
	}
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].CreatedAt.After(remaining[j].CreatedAt)
	})
	remaining[0].IsActive = true
	return nil
}

func (s *Store) ownedLocked(ownerID uuid.UUID) []*models.Credential {
	var out []*models.Credential
	for _, c := range s.creds {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out
}
