// Package session issues and resolves opaque login sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/model"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// ErrSessionNotFound is returned for unknown, revoked or expired tokens.
var ErrSessionNotFound = fmt.Errorf("session not found: %w", model.ErrUnauthenticated)

// Store persists sessions keyed by token hash.
type Store interface {
	Save(ctx context.Context, s *model.Session) error
	// Get returns ErrSessionNotFound when no live session exists.
	Get(ctx context.Context, tokenHash string) (*model.Session, error)
	Delete(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}

// Manager creates, resolves and revokes sessions.
type Manager struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a Manager over store. A non-positive ttl uses
// DefaultTTL.
func NewManager(store Store, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With("component", "session"),
	}
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a session for userID and returns the plaintext token the
// client must present.
func (m *Manager) Create(ctx context.Context, userID int64) (string, *model.Session, error) {
	tok, err := auth.GenerateSessionToken()
	if err != nil {
		return "", nil, err
	}

	now := m.now()
	s := &model.Session{
		ID:        ulid.Make().String(),
		UserID:    userID,
		TokenHash: tok.Hash,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}

	m.logger.Info("session_created", "session_id", s.ID, "user_id", userID)
	return tok.Plaintext, s, nil
}

// Resolve returns the live session for token.
func (m *Manager) Resolve(ctx context.Context, token string) (*model.Session, error) {
	if !auth.ValidateTokenFormat(token) {
		return nil, ErrSessionNotFound
	}

	hash := auth.HashToken(token)
	s, err := m.store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if s.IsExpired(m.now()) {
		_ = m.store.Delete(ctx, hash)
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Revoke ends the session for token. Unknown tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if !auth.ValidateTokenFormat(token) {
		return nil
	}
	if err := m.store.Delete(ctx, auth.HashToken(token)); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
