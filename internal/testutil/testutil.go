// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731031

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateAll empties every application table. Sequences keep counting so
// ids are never reused across tests.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE insights, notifications, transactions, goals, users CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Amount parses a decimal literal and panics on malformed input.
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var seq atomic.Int64

// UniqueName returns prefix with a process-unique suffix.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUser returns an unsaved user with unique username and email.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	name := UniqueName("user")
	return &model.User{
		Username:     name,
		Email:        name + "@example.com",
		FullName:     "Test User",
		PasswordHash: "not-a-real-hash",
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestGoal returns an unsaved in-progress goal owned by userID.
func NewTestGoal(t testing.TB, userID int64, target string) *model.Goal {
	t.Helper()
	now := time.Now().UTC()
	return &model.Goal{
		UserID:        userID,
		Name:          "Emergency Fund",
		Category:      "Savings",
		TargetAmount:  Amount(target),
		CurrentAmount: decimal.Zero,
		StartDate:     Date(2025, time.January, 1),
		TargetDate:    Date(2025, time.December, 31),
		Status:        model.GoalStatusInProgress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
