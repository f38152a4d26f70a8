package store

import (
	"context"
	"errors"

	"github.com/dataforge-ai/dataforge/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateEmail = errors.New("email already registered")

// Store is the data access interface. All database operations go through here.
//
// Credential write operations carry the single-active discipline: at most one
// credential per owner is active in any committed state. Implementations must
// order the clear-then-set steps so a partial failure leaves zero active rows
// for the owner, never two.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateCredential inserts a credential. When the owner has no prior
	// credentials the new one is activated in the same transaction.
	CreateCredential(ctx context.Context, cred *models.Credential) error

	// ListCredentials returns the owner's credentials, newest first.
	ListCredentials(ctx context.Context, ownerID uuid.UUID) ([]*models.Credential, error)

	// GetActiveCredential returns the owner's single active credential,
	// or ErrNotFound when none is active.
	GetActiveCredential(ctx context.Context, ownerID uuid.UUID) (*models.Credential, error)

	// SetActiveCredential clears is_active on the owner's other credentials
	// and then activates the target row, in one transaction. Returns
	// ErrNotFound when the target does not exist or belongs to another owner.
	SetActiveCredential(ctx context.Context, ownerID, id uuid.UUID) error

	// DeleteCredential removes a credential. When the deleted row was the
	// active one and others remain, the most recently created remaining
	// credential is activated in the same transaction.
	DeleteCredential(ctx context.Context, ownerID, id uuid.UUID) error
}
