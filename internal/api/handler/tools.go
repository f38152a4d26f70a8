package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	mw "github.com/dataforge-ai/dataforge/internal/api/middleware"
	"github.com/dataforge-ai/dataforge/internal/api/response"
	"github.com/dataforge-ai/dataforge/internal/dataprep"
	"github.com/dataforge-ai/dataforge/internal/openai"
	"github.com/dataforge-ai/dataforge/internal/session"
	"github.com/dataforge-ai/dataforge/internal/tools"
)

// ToolService defines the interface the tool handlers depend on.
type ToolService interface {
	Run(ctx context.Context, sess session.Session, req tools.Request) (string, error)
	Balance(rows dataprep.Rows, labelKey string, strategy tools.BalanceStrategy) (dataprep.Rows, error)
	Augment(rows dataprep.Rows, scale float64, exclude []string) (dataprep.Rows, error)
}

// NewToolHandler returns an http.HandlerFunc for the AI-backed tool routes.
// The kind is fixed per route; the body supplies instructions and input.
func NewToolHandler(svc ToolService, kind tools.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			Instructions string `json:"instructions"`
			Input        string `json:"input"`
			Count        int    `json:"count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		out, err := svc.Run(r.Context(), sess, tools.Request{
			Kind:         kind,
			Instructions: req.Instructions,
			Input:        req.Input,
			Count:        req.Count,
		})
		if err != nil {
			switch {
			case errors.Is(err, tools.ErrNoActiveKey):
				response.Error(w, http.StatusBadRequest, "NO_ACTIVE_KEY",
					"Add and activate an API key first", nil)
			case errors.Is(err, openai.ErrInvalidKey):
				response.Error(w, http.StatusBadGateway, "PROVIDER_REJECTED_KEY",
					"The provider rejected the active API key", nil)
			case errors.Is(err, openai.ErrProviderUnreachable), errors.Is(err, openai.ErrInvalidResponse):
				response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
					"The AI provider is not available", nil)
			default:
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			}
			return
		}

		response.JSON(w, map[string]string{"output": out})
	}
}

// NewBalanceHandler returns an http.HandlerFunc for POST /api/v1/tools/balance.
func NewBalanceHandler(svc ToolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := mw.GetSession(r); !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			Rows     dataprep.Rows `json:"rows"`
			LabelKey string        `json:"label_key"`
			Strategy string        `json:"strategy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.LabelKey == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "label_key is required", nil)
			return
		}
		strategy := tools.BalanceStrategy(req.Strategy)
		if strategy == "" {
			strategy = tools.StrategyOversample
		}

		rows, err := svc.Balance(req.Rows, req.LabelKey, strategy)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		response.JSON(w, map[string]any{"rows": rows})
	}
}

// NewAugmentHandler returns an http.HandlerFunc for POST /api/v1/tools/augment.
func NewAugmentHandler(svc ToolService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := mw.GetSession(r); !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			Rows    dataprep.Rows `json:"rows"`
			Scale   float64       `json:"scale"`
			Exclude []string      `json:"exclude"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Scale == 0 {
			req.Scale = 0.05
		}

		rows, err := svc.Augment(req.Rows, req.Scale, req.Exclude)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		response.JSON(w, map[string]any{"rows": rows})
	}
}
