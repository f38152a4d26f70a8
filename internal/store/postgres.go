package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dataforge-ai/dataforge/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// --- Credentials ---

func (s *PostgresStore) CreateCredential(ctx context.Context, cred *models.Credential) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create credential: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM api_keys WHERE owner_id = $1`, cred.OwnerID,
	).Scan(&count); err != nil {
		return fmt.Errorf("create credential: count: %w", err)
	}

	// First credential for an owner becomes the active one.
	cred.IsActive = count == 0

	_, err = tx.Exec(ctx,
		`INSERT INTO api_keys (id, owner_id, key_name, key_value, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cred.ID, cred.OwnerID, cred.KeyName, cred.KeyValue, cred.IsActive, cred.CreatedAt, cred.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create credential: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("create credential: commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListCredentials(ctx context.Context, ownerID uuid.UUID) ([]*models.Credential, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, key_name, key_value, is_active, created_at, updated_at
		 FROM api_keys WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []*models.Credential
	for rows.Next() {
		var c models.Credential
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.KeyName, &c.KeyValue, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, &c)
	}
	return creds, rows.Err()
}

func (s *PostgresStore) GetActiveCredential(ctx context.Context, ownerID uuid.UUID) (*models.Credential, error) {
	var c models.Credential
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, key_name, key_value, is_active, created_at, updated_at
		 FROM api_keys WHERE owner_id = $1 AND is_active LIMIT 1`, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.KeyName, &c.KeyValue, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active credential: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) SetActiveCredential(ctx context.Context, ownerID, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("set active credential: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Clear before set: a failure between the steps leaves zero active rows
	// for the owner, never two. The partial unique index on
	// (owner_id) WHERE is_active backs the same invariant at the data layer.
	if _, err := tx.Exec(ctx,
		`UPDATE api_keys SET is_active = FALSE, updated_at = NOW()
		 WHERE owner_id = $1 AND is_active AND id <> $2`, ownerID, id); err != nil {
		return fmt.Errorf("set active credential: clear: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE api_keys SET is_active = TRUE, updated_at = NOW()
		 WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("set active credential: set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("set active credential: commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteCredential(ctx context.Context, ownerID, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete credential: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var wasActive bool
	err = tx.QueryRow(ctx,
		`DELETE FROM api_keys WHERE owner_id = $1 AND id = $2 RETURNING is_active`,
		ownerID, id,
	).Scan(&wasActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}

	if wasActive {
		// Promote the most recently created remaining credential, if any.
		if _, err := tx.Exec(ctx,
			`UPDATE api_keys SET is_active = TRUE, updated_at = NOW()
			 WHERE id = (
			   SELECT id FROM api_keys WHERE owner_id = $1
			   ORDER BY created_at DESC LIMIT 1
			 )`, ownerID); err != nil {
			return fmt.Errorf("delete credential: promote: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete credential: commit: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
