package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	mw "github.com/dataforge-ai/dataforge/internal/api/middleware"
	"github.com/dataforge-ai/dataforge/internal/api/response"
	"github.com/dataforge-ai/dataforge/internal/credential"
	"github.com/dataforge-ai/dataforge/internal/openai"
	"github.com/dataforge-ai/dataforge/internal/session"
	"github.com/dataforge-ai/dataforge/internal/store"
	"github.com/dataforge-ai/dataforge/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CredentialService defines the interface the key handlers depend on.
type CredentialService interface {
	Add(ctx context.Context, sess session.Session, name, key string) (*models.Credential, error)
	List(ctx context.Context, sess session.Session) ([]*models.Credential, error)
	Delete(ctx context.Context, sess session.Session, id uuid.UUID) error
	Activate(ctx context.Context, sess session.Session, id uuid.UUID) error
}

// KeyValidator probes whether an API key is accepted by the provider.
type KeyValidator interface {
	ValidateKey(ctx context.Context, key string) openai.ValidationResult
}

// credentialPayload is the wire form of a credential. The key value itself
// is never returned, only its masked form.
type credentialPayload struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	MaskedKey string    `json:"masked_key"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toPayload(c *models.Credential) credentialPayload {
	return credentialPayload{
		ID:        c.ID,
		Name:      c.KeyName,
		MaskedKey: c.MaskedKey(),
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
}

// NewCreateKeyHandler returns an http.HandlerFunc for POST /api/v1/keys.
func NewCreateKeyHandler(svc CredentialService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			Name string `json:"name"`
			Key  string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		cred, err := svc.Add(r.Context(), sess, req.Name, req.Key)
		if err != nil {
			if errors.Is(err, credential.ErrEmptyKey) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "key is required", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save key", nil)
			return
		}

		response.Created(w, toPayload(cred))
	}
}

// NewListKeysHandler returns an http.HandlerFunc for GET /api/v1/keys.
func NewListKeysHandler(svc CredentialService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		creds, err := svc.List(r.Context(), sess)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list keys", nil)
			return
		}

		payloads := make([]credentialPayload, 0, len(creds))
		for _, c := range creds {
			payloads = append(payloads, toPayload(c))
		}
		response.JSON(w, payloads)
	}
}

// NewDeleteKeyHandler returns an http.HandlerFunc for DELETE /api/v1/keys/{keyID}.
func NewDeleteKeyHandler(svc CredentialService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "keyID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "keyID must be a UUID", nil)
			return
		}

		if err := svc.Delete(r.Context(), sess, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Key not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete key", nil)
			return
		}

		response.NoContent(w)
	}
}

// NewActivateKeyHandler returns an http.HandlerFunc for POST /api/v1/keys/{keyID}/activate.
func NewActivateKeyHandler(svc CredentialService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "keyID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "keyID must be a UUID", nil)
			return
		}

		if err := svc.Activate(r.Context(), sess, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Key not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to activate key", nil)
			return
		}

		response.NoContent(w)
	}
}

// NewValidateKeyHandler returns an http.HandlerFunc for POST /api/v1/keys/validate.
// Validation is advisory: the result reports the probe outcome and the
// request succeeds regardless of whether the key is usable.
func NewValidateKeyHandler(v KeyValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		response.JSON(w, v.ValidateKey(r.Context(), req.Key))
	}
}
