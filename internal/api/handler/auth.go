package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	mw "github.com/dataforge-ai/dataforge/internal/api/middleware"
	"github.com/dataforge-ai/dataforge/internal/api/response"
	"github.com/dataforge-ai/dataforge/internal/session"
	"github.com/dataforge-ai/dataforge/internal/store"
	"github.com/google/uuid"
)

// SessionService defines the interface the auth handlers depend on.
type SessionService interface {
	SignUp(ctx context.Context, email, name, password string) (*session.Session, string, error)
	SignIn(ctx context.Context, email, password string) (*session.Session, string, error)
	SignOut(sess session.Session)
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// NewSignUpHandler returns an http.HandlerFunc for POST /api/v1/auth/signup.
func NewSignUpHandler(svc SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		sess, token, err := svc.SignUp(r.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrInvalidEmail):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "A valid email is required", nil)
			case errors.Is(err, session.ErrWeakPassword):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			case errors.Is(err, store.ErrDuplicateEmail):
				response.Error(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", nil)
			}
			return
		}

		response.Created(w, sessionResponse{
			Token: token,
			User:  userPayload{ID: sess.UserID, Email: sess.Email, Name: sess.Name},
		})
	}
}

// NewSignInHandler returns an http.HandlerFunc for POST /api/v1/auth/signin.
func NewSignInHandler(svc SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		sess, token, err := svc.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, session.ErrInvalidCredentials) {
				response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in", nil)
			return
		}

		response.JSON(w, sessionResponse{
			Token: token,
			User:  userPayload{ID: sess.UserID, Email: sess.Email, Name: sess.Name},
		})
	}
}

// NewSignOutHandler returns an http.HandlerFunc for POST /api/v1/auth/signout.
func NewSignOutHandler(svc SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := mw.GetSession(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		svc.SignOut(sess)
		response.NoContent(w)
	}
}
