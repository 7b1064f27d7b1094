package session

import (
	"context"
	"time"

	"github.com/goalfund/goalfund/internal/cache"
	"github.com/goalfund/goalfund/internal/model"
)

// DefaultMemoryCapacity bounds the in-process session store.
const DefaultMemoryCapacity = 10000

// MemoryStore keeps sessions in a process-local LRU. When full, the least
// recently used session is logged out.
type MemoryStore struct {
	sessions *cache.LRU[model.Session]
}

// NewMemoryStore creates a MemoryStore holding up to capacity sessions.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{sessions: cache.NewLRU[model.Session](capacity, DefaultTTL)}
}

func (m *MemoryStore) Save(_ context.Context, s *model.Session) error {
	m.sessions.SetWithTTL(s.TokenHash, *s, time.Until(s.ExpiresAt))
	return nil
}

func (m *MemoryStore) Get(_ context.Context, tokenHash string) (*model.Session, error) {
	s, ok := m.sessions.Get(tokenHash)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, tokenHash string) error {
	m.sessions.Delete(tokenHash)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
