package credential

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dataforge-ai/dataforge/internal/cache"
	"github.com/dataforge-ai/dataforge/internal/session"
	"github.com/dataforge-ai/dataforge/internal/store"
	"github.com/google/uuid"
)

// Registry ties Container lifecycle to session lifetime: a container is
// created and initialized on first use or sign-in, re-initialized on every
// sign-in event, and disposed on sign-out.
type Registry struct {
	store  store.Store
	cache  cache.Cache
	logger *slog.Logger

	mu         sync.Mutex
	containers map[uuid.UUID]*Container
}

// NewRegistry creates an empty Registry.
func NewRegistry(st store.Store, ca cache.Cache, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:      st,
		cache:      ca,
		logger:     logger,
		containers: make(map[uuid.UUID]*Container),
	}
}

// ForSession returns the container for the session, creating and initializing
// it on first use.
func (r *Registry) ForSession(ctx context.Context, sess session.Session) *Container {
	r.mu.Lock()
	c, ok := r.containers[sess.UserID]
	if !ok {
		c = NewContainer(sess, r.store, r.cache, r.logger)
		r.containers[sess.UserID] = c
	}
	r.mu.Unlock()

	if !ok {
		c.Initialize(ctx)
	}
	return c
}

// Dispose drops the container for a user. The cache entries stay; they are
// the starting point for the next sign-in's reconciliation.
func (r *Registry) Dispose(userID uuid.UUID) {
	r.mu.Lock()
	delete(r.containers, userID)
	r.mu.Unlock()
}

// Run consumes session-change events until ctx is done: sign-in initializes
// (or re-initializes) the user's container, sign-out disposes it.
func (r *Registry) Run(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case session.EventSignedIn:
				r.mu.Lock()
				c, ok := r.containers[ev.Session.UserID]
				if !ok {
					c = NewContainer(ev.Session, r.store, r.cache, r.logger)
					r.containers[ev.Session.UserID] = c
				}
				r.mu.Unlock()
				c.Initialize(ctx)
			case session.EventSignedOut:
				r.Dispose(ev.Session.UserID)
			}
		}
	}
}
