package session

import (
	"context"
	"errors"

	"github.com/goalfund/goalfund/internal/cache"
	"github.com/goalfund/goalfund/internal/model"
)

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// between instances.
type RedisStore struct {
	cache *cache.Cache
}

// NewRedisStore creates a RedisStore on c.
func NewRedisStore(c *cache.Cache) *RedisStore {
	return &RedisStore{cache: c}
}

func (r *RedisStore) Save(ctx context.Context, s *model.Session) error {
	return r.cache.SetSession(ctx, s)
}

func (r *RedisStore) Get(ctx context.Context, tokenHash string) (*model.Session, error) {
	s, err := r.cache.GetSession(ctx, tokenHash)
	if errors.Is(err, cache.ErrSessionMiss) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

func (r *RedisStore) Delete(ctx context.Context, tokenHash string) error {
	return r.cache.DeleteSession(ctx, tokenHash)
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.cache.Ping(ctx)
}
