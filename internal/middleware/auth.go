package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
)

// DefaultSessionCookie is the cookie that carries the session token.
const DefaultSessionCookie = "goalfund_session"

// SessionResolver looks up the live session for a token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*model.Session, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Sessions   SessionResolver
	CookieName string
	Metrics    metrics.Recorder
}

// Auth requires a live session, read from the session cookie or an
// "Authorization: Bearer" header, and stores it in the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookie
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r, cfg.CookieName)
			if token == "" {
				reject(cfg, w, r, "missing_token")
				return
			}

			sess, err := cfg.Sessions.Resolve(r.Context(), token)
			if err != nil {
				if errors.Is(err, model.ErrUnauthenticated) {
					reject(cfg, w, r, "invalid_session")
					return
				}
				cfg.Logger.Error("session lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				return
			}

			setUserID(r.Context(), sess.UserID)
			ctx := auth.ContextWithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken extracts the session token, preferring the Authorization
// header over the cookie.
func SessionToken(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// reject uses one message for every failure so callers cannot tell a
// missing token from a revoked one.
func reject(cfg AuthConfig, w http.ResponseWriter, r *http.Request, reason string) {
	cfg.Metrics.IncAuthFailure(reason)
	cfg.Logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
}
