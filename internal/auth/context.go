package auth

import (
	"context"

	"github.com/goalfund/goalfund/internal/model"
)

type contextKey string

const sessionContextKey contextKey = "session"

// ContextWithSession adds the authenticated session to ctx.
func ContextWithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// SessionFromContext returns the session, or nil when unauthenticated.
func SessionFromContext(ctx context.Context) *model.Session {
	s, _ := ctx.Value(sessionContextKey).(*model.Session)
	return s
}

// UserIDFromContext returns the authenticated user id, or 0.
func UserIDFromContext(ctx context.Context) int64 {
	if s := SessionFromContext(ctx); s != nil {
		return s.UserID
	}
	return 0
}
