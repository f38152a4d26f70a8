package handler

import (
	"context"
	"encoding/json"
	"net/http"

	mw "github.com/dataforge-ai/dataforge/internal/api/middleware"
	"github.com/dataforge-ai/dataforge/internal/api/response"
	"github.com/dataforge-ai/dataforge/internal/credential"
	"github.com/dataforge-ai/dataforge/internal/session"
	"github.com/dataforge-ai/dataforge/pkg/models"
)

// ContainerResolver resolves the per-session credential container.
type ContainerResolver interface {
	ForSession(ctx context.Context, sess session.Session) *credential.Container
}

type modelPayload struct {
	Model     models.Model   `json:"model"`
	Available []models.Model `json:"available"`
}

// NewGetModelHandler returns an http.HandlerFunc for GET /api/v1/settings/model.
func NewGetModelHandler(resolver ContainerResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		container := resolver.ForSession(r.Context(), sess)
		response.JSON(w, modelPayload{
			Model:     container.SelectedModel(),
			Available: models.AllModels,
		})
	}
}

// NewSetModelHandler returns an http.HandlerFunc for PUT /api/v1/settings/model.
// Unknown model names are coerced to the default rather than rejected; the
// response reports the model that actually took effect.
func NewSetModelHandler(resolver ContainerResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		container := resolver.ForSession(r.Context(), sess)
		container.SetSelectedModel(r.Context(), models.Model(req.Model))

		response.JSON(w, modelPayload{
			Model:     container.SelectedModel(),
			Available: models.AllModels,
		})
	}
}
