package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goalfund/goalfund/internal/model"
)

const sessionKeyPrefix = "session:"

// ErrSessionMiss indicates no session is stored under the given token hash.
var ErrSessionMiss = errors.New("session not cached")

// cachedSession is the Redis encoding of a session. It keeps the token hash
// that model.Session hides from JSON.
type cachedSession struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SetSession stores s until its expiry.
func (c *Cache) SetSession(ctx context.Context, s *model.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(cachedSession{
		ID:        s.ID,
		UserID:    s.UserID,
		TokenHash: s.TokenHash,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return c.client.Set(ctx, sessionKeyPrefix+s.TokenHash, data, ttl).Err()
}

// GetSession loads the session stored under tokenHash.
// Returns ErrSessionMiss when absent.
func (c *Cache) GetSession(ctx context.Context, tokenHash string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKeyPrefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var cs cachedSession
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &model.Session{
		ID:        cs.ID,
		UserID:    cs.UserID,
		TokenHash: cs.TokenHash,
		CreatedAt: cs.CreatedAt,
		ExpiresAt: cs.ExpiresAt,
	}, nil
}

// DeleteSession removes the session stored under tokenHash.
func (c *Cache) DeleteSession(ctx context.Context, tokenHash string) error {
	return c.client.Del(ctx, sessionKeyPrefix+tokenHash).Err()
}
