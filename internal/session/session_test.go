package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/goalfund/goalfund/internal/model"
)

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(16)
	return NewManager(store, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestManager_CreateResolveRevoke(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	token, s, err := m.Create(ctx, 7)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if s.ID == "" || s.UserID != 7 {
		t.Errorf("session = %+v", s)
	}
	if !s.ExpiresAt.Equal(s.CreatedAt.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v, want CreatedAt+1h", s.ExpiresAt)
	}

	got, err := m.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.ID != s.ID || got.UserID != 7 {
		t.Errorf("Resolve = %+v, want session %s", got, s.ID)
	}

	if err := m.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Resolve after revoke error = %v, want ErrSessionNotFound", err)
	}
	if err := m.Revoke(ctx, token); err != nil {
		t.Errorf("second Revoke error = %v, want nil", err)
	}
}

func TestManager_ResolveRejects(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "Bearer nope"},
		{"unknown", "gf_0000000000000000000000000000000000000000000000000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := m.Resolve(context.Background(), tt.token)
			if !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("error = %v, want ErrSessionNotFound", err)
			}
			if !errors.Is(err, model.ErrUnauthenticated) {
				t.Error("ErrSessionNotFound should wrap ErrUnauthenticated")
			}
		})
	}
}

func TestManager_Expiry(t *testing.T) {
	t.Parallel()

	m, store := newTestManager(t)
	ctx := context.Background()

	token, s, err := m.Create(ctx, 1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	m.now = func() time.Time { return s.ExpiresAt }
	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expired Resolve error = %v, want ErrSessionNotFound", err)
	}
	if _, err := store.Get(ctx, s.TokenHash); !errors.Is(err, ErrSessionNotFound) {
		t.Error("expired session should be removed from the store")
	}
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	ctx := context.Background()

	t1, _, _ := m.Create(ctx, 1)
	t2, _, _ := m.Create(ctx, 2)
	if t1 == t2 {
		t.Fatal("tokens should differ")
	}

	if err := m.Revoke(ctx, t1); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	s, err := m.Resolve(ctx, t2)
	if err != nil || s.UserID != 2 {
		t.Errorf("Resolve(t2) = %+v, %v; want user 2", s, err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(4)
	ctx := context.Background()
	in := &model.Session{ID: "a", UserID: 1, TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, _ := store.Get(ctx, "h")
	got.UserID = 99
	again, _ := store.Get(ctx, "h")
	if again.UserID != 1 {
		t.Errorf("UserID = %d, stored session was mutated", again.UserID)
	}
}
