package middleware

import (
	"context"
	"net/http"

	"github.com/dataforge-ai/dataforge/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

func SetSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

func GetSession(r *http.Request) (session.Session, bool) {
	sess, ok := r.Context().Value(sessionKey).(session.Session)
	return sess, ok
}
