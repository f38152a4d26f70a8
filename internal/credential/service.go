package credential

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dataforge-ai/dataforge/internal/session"
	"github.com/dataforge-ai/dataforge/internal/store"
	"github.com/dataforge-ai/dataforge/pkg/models"
	"github.com/google/uuid"
)

const defaultKeyName = "OpenAI API Key"

// ErrEmptyKey rejects credentials with a blank key value.
var ErrEmptyKey = errors.New("key value is required")

// Service implements the explicit credential mutations (add, delete,
// activate). Unlike Container, these operations return errors: the caller is
// a user-initiated action and surfaces its own failures. After every
// successful mutation the session's container is refreshed from the store so
// the resolved key follows the committed state.
type Service struct {
	store    store.Store
	registry *Registry
}

// NewService creates a Service.
func NewService(st store.Store, reg *Registry) *Service {
	return &Service{store: st, registry: reg}
}

// Add persists a new credential for the session owner. The first credential
// an owner adds becomes active; later ones stay inactive until activated.
func (s *Service) Add(ctx context.Context, sess session.Session, name, key string) (*models.Credential, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrEmptyKey
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultKeyName
	}

	now := time.Now().UTC()
	cred := &models.Credential{
		ID:        uuid.New(),
		OwnerID:   sess.UserID,
		KeyName:   name,
		KeyValue:  key,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateCredential(ctx, cred); err != nil {
		return nil, err
	}

	s.refresh(ctx, sess)
	return cred, nil
}

// List returns the session owner's credentials, newest first.
func (s *Service) List(ctx context.Context, sess session.Session) ([]*models.Credential, error) {
	return s.store.ListCredentials(ctx, sess.UserID)
}

// Delete removes a credential. When the deleted credential was active, the
// store promotes the most recently created remaining one, and the refresh
// picks up its key.
func (s *Service) Delete(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := s.store.DeleteCredential(ctx, sess.UserID, id); err != nil {
		return err
	}
	s.refresh(ctx, sess)
	return nil
}

// Activate makes the credential the owner's single active one.
func (s *Service) Activate(ctx context.Context, sess session.Session, id uuid.UUID) error {
	if err := s.store.SetActiveCredential(ctx, sess.UserID, id); err != nil {
		return err
	}
	s.refresh(ctx, sess)
	return nil
}

func (s *Service) refresh(ctx context.Context, sess session.Session) {
	s.registry.ForSession(ctx, sess).LoadActiveCredentialFromStore(ctx)
}
