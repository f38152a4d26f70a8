package api

import (
	"net/http"

	mw "github.com/dataforge-ai/dataforge/internal/api/middleware"
	"github.com/dataforge-ai/dataforge/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	SignUpHandler  http.HandlerFunc
	SignInHandler  http.HandlerFunc
	SignOutHandler http.HandlerFunc

	CreateKeyHandler   http.HandlerFunc
	ListKeysHandler    http.HandlerFunc
	DeleteKeyHandler   http.HandlerFunc
	ActivateKeyHandler http.HandlerFunc
	ValidateKeyHandler http.HandlerFunc

	GetModelHandler http.HandlerFunc
	SetModelHandler http.HandlerFunc

	GenerateHandler http.HandlerFunc
	MaskHandler     http.HandlerFunc
	ParseHandler    http.HandlerFunc
	ExtractHandler  http.HandlerFunc
	QueryHandler    http.HandlerFunc
	BalanceHandler  http.HandlerFunc
	AugmentHandler  http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public routes
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/v1/auth/signup", orNotImplemented(deps.SignUpHandler))
	r.Post("/api/v1/auth/signin", orNotImplemented(deps.SignInHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/auth/signout", orNotImplemented(deps.SignOutHandler))

		r.Post("/api/v1/keys", orNotImplemented(deps.CreateKeyHandler))
		r.Get("/api/v1/keys", orNotImplemented(deps.ListKeysHandler))
		r.Post("/api/v1/keys/validate", orNotImplemented(deps.ValidateKeyHandler))
		r.Delete("/api/v1/keys/{keyID}", orNotImplemented(deps.DeleteKeyHandler))
		r.Post("/api/v1/keys/{keyID}/activate", orNotImplemented(deps.ActivateKeyHandler))

		r.Get("/api/v1/settings/model", orNotImplemented(deps.GetModelHandler))
		r.Put("/api/v1/settings/model", orNotImplemented(deps.SetModelHandler))

		r.Post("/api/v1/tools/generate", orNotImplemented(deps.GenerateHandler))
		r.Post("/api/v1/tools/mask", orNotImplemented(deps.MaskHandler))
		r.Post("/api/v1/tools/parse", orNotImplemented(deps.ParseHandler))
		r.Post("/api/v1/tools/extract", orNotImplemented(deps.ExtractHandler))
		r.Post("/api/v1/tools/query", orNotImplemented(deps.QueryHandler))
		r.Post("/api/v1/tools/balance", orNotImplemented(deps.BalanceHandler))
		r.Post("/api/v1/tools/augment", orNotImplemented(deps.AugmentHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
