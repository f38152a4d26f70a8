// Package session implements sign-up, sign-in, and token verification, and
// publishes session-change events to subscribers. Passwords are stored as
// bcrypt hashes; sessions are carried as signed JWTs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dataforge-ai/dataforge/internal/config"
	"github.com/dataforge-ai/dataforge/internal/store"
	"github.com/dataforge-ai/dataforge/pkg/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidToken       = errors.New("invalid or expired session token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// Session is the authenticated identity context attached to a request.
type Session struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// EventType distinguishes session-change notifications.
type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event describes a session change delivered to subscribers.
type Event struct {
	Type    EventType
	Session Session
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Manager owns account creation and session tokens.
type Manager struct {
	store      store.Store
	secret     []byte
	ttl        time.Duration
	bcryptCost int

	mu   sync.Mutex
	subs []chan Event
}

// NewManager creates a Manager backed by the given store.
func NewManager(s store.Store, cfg config.AuthConfig) *Manager {
	return &Manager{
		store:      s,
		secret:     []byte(cfg.TokenSecret),
		ttl:        cfg.TokenTTL,
		bcryptCost: cfg.BcryptCost,
	}
}

// SignUp registers a new account and signs it in.
func (m *Manager) SignUp(ctx context.Context, email, name, password string) (*Session, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	if len(password) < 8 {
		return nil, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	return m.establish(user)
}

// SignIn verifies the password and issues a session token.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := m.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	return m.establish(user)
}

// SignOut publishes a signed-out event for the session. Token invalidation is
// expiry-based; subscribers (the credential registry) drop per-session state.
func (m *Manager) SignOut(sess Session) {
	m.publish(Event{Type: EventSignedOut, Session: sess})
}

// Verify parses and validates a session token.
func (m *Manager) Verify(token string) (*Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Session{UserID: userID, Email: c.Email, Name: c.Name}, nil
}

// Subscribe returns a channel of session-change events. Delivery is
// best-effort: a subscriber that falls behind misses events.
func (m *Manager) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) establish(user *models.User) (*Session, string, error) {
	sess := Session{UserID: user.ID, Email: user.Email, Name: user.Name}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	m.publish(Event{Type: EventSignedIn, Session: sess})
	return &sess, signed, nil
}

func (m *Manager) publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
