// Package credential maintains the resolved "active API key + selected model"
// state for each signed-in user. The durable rows live in the store; the cache
// holds the last resolved key and model per user. The store wins on conflict,
// and every store or cache failure degrades to the last known value; nothing
// in this package propagates those errors to callers.
package credential

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/dataforge-ai/dataforge/internal/cache"
	"github.com/dataforge-ai/dataforge/internal/session"
	"github.com/dataforge-ai/dataforge/internal/store"
	"github.com/dataforge-ai/dataforge/pkg/models"
	"github.com/google/uuid"
)

// Container holds the resolved credential state for one session. It is safe
// for concurrent use. Overlapping Initialize calls both complete and the last
// write wins; no generation counter is kept.
type Container struct {
	sess   session.Session
	store  store.Store
	cache  cache.Cache
	logger *slog.Logger

	mu     sync.RWMutex
	apiKey string
	model  models.Model
}

// NewContainer creates an uninitialized Container for the session. Call
// Initialize before reading state.
func NewContainer(sess session.Session, st store.Store, ca cache.Cache, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	return &Container{
		sess:   sess,
		store:  st,
		cache:  ca,
		logger: logger.With("user_id", sess.UserID),
		model:  models.DefaultModel,
	}
}

// Session returns the session this container belongs to.
func (c *Container) Session() session.Session {
	return c.sess
}

// APIKey returns the in-memory resolved API key, or "" when none is resolved.
func (c *Container) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// SelectedModel returns the in-memory selected model.
func (c *Container) SelectedModel() models.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Initialize resolves the container state: cached key and model first, then
// the store's active credential, which overrides the cache when found. Cache
// and store failures are logged and leave the previous value in place.
func (c *Container) Initialize(ctx context.Context) {
	var cachedKey string
	if v, ok, err := c.cache.Get(ctx, cache.APIKeyKey(c.sess.UserID)); err != nil {
		c.logger.Warn("read cached api key failed", "error", err)
	} else if ok {
		cachedKey = string(v)
	}

	model := models.DefaultModel
	if v, ok, err := c.cache.Get(ctx, cache.ModelKey(c.sess.UserID)); err != nil {
		c.logger.Warn("read cached model failed", "error", err)
	} else if ok {
		coerced, valid := models.CoerceModel(string(v))
		model = coerced
		if !valid {
			c.logger.Warn("cached model outside enumerated set, reset to default",
				"cached", string(v), "default", models.DefaultModel)
			c.writeCache(ctx, cache.ModelKey(c.sess.UserID), string(models.DefaultModel))
		}
	}

	c.mu.Lock()
	c.apiKey = cachedKey
	c.model = model
	c.mu.Unlock()

	c.LoadActiveCredentialFromStore(ctx)
}

// SetAPIKey sets the in-memory key and writes it to the cache. It performs no
// validation and never touches the store; persisting new credentials is the
// explicit add-credential flow owned by Service.
func (c *Container) SetAPIKey(ctx context.Context, key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
	c.writeCache(ctx, cache.APIKeyKey(c.sess.UserID), key)
}

// ClearAPIKey removes the in-memory key and the cache entry. Idempotent.
func (c *Container) ClearAPIKey(ctx context.Context) {
	c.mu.Lock()
	c.apiKey = ""
	c.mu.Unlock()
	if err := c.cache.Delete(ctx, cache.APIKeyKey(c.sess.UserID)); err != nil {
		c.logger.Warn("delete cached api key failed", "error", err)
	}
}

// SetSelectedModel sets the model, coercing values outside the enumerated set
// to the default. Always succeeds; invalid input is corrected, not rejected.
func (c *Container) SetSelectedModel(ctx context.Context, m models.Model) {
	coerced, valid := models.CoerceModel(string(m))
	if !valid {
		c.logger.Warn("model outside enumerated set, using default",
			"requested", string(m), "default", models.DefaultModel)
	}
	c.mu.Lock()
	c.model = coerced
	c.mu.Unlock()
	c.writeCache(ctx, cache.ModelKey(c.sess.UserID), string(coerced))
}

// LoadActiveCredentialFromStore queries the store for the session owner's
// active credential and, when found, overwrites the in-memory key and
// refreshes the cache. Returns false when no session user is present, no
// credential is active, or the query fails; failures are logged, not returned.
func (c *Container) LoadActiveCredentialFromStore(ctx context.Context) bool {
	if c.sess.UserID == uuid.Nil {
		return false
	}

	cred, err := c.store.GetActiveCredential(ctx, c.sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return false
	}
	if err != nil {
		c.logger.Warn("load active credential failed, keeping cached key", "error", err)
		return false
	}

	key := strings.TrimSpace(cred.KeyValue)
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
	c.writeCache(ctx, cache.APIKeyKey(c.sess.UserID), key)
	return true
}

func (c *Container) writeCache(ctx context.Context, key, value string) {
	if err := c.cache.Set(ctx, key, []byte(value), 0); err != nil {
		c.logger.Warn("write cache entry failed", "key", key, "error", err)
	}
}
