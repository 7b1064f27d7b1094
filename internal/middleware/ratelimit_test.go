package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/cache"
	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
)

type mockLimiter struct {
	result  *cache.RateLimitResult
	err     error
	lastKey string
}

func (m *mockLimiter) CheckUserRateLimit(_ context.Context, userID int64, _, _ int) (*cache.RateLimitResult, error) {
	m.lastKey = "user"
	return m.result, m.err
}

func (m *mockLimiter) CheckIPRateLimit(_ context.Context, ip string, _, _ int) (*cache.RateLimitResult, error) {
	m.lastKey = ip
	return m.result, m.err
}

func withSession(r *http.Request, userID int64) *http.Request {
	return r.WithContext(auth.ContextWithSession(r.Context(), &model.Session{UserID: userID}))
}

func TestRateLimitUser(t *testing.T) {
	t.Parallel()

	reset := time.Now().Add(30 * time.Second)
	tests := []struct {
		name       string
		limiter    *mockLimiter
		enabled    bool
		wantStatus int
		wantRetry  string
	}{
		{
			name:       "allowed",
			limiter:    &mockLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4, ResetAt: reset}},
			enabled:    true,
			wantStatus: http.StatusOK,
		},
		{
			name: "limited",
			limiter: &mockLimiter{result: &cache.RateLimitResult{
				Allowed: false, ResetAt: reset, RetryAfter: 1500 * time.Millisecond,
			}},
			enabled:    true,
			wantStatus: http.StatusTooManyRequests,
			wantRetry:  "2",
		},
		{
			name:       "limiter error fails open",
			limiter:    &mockLimiter{err: errors.New("redis down")},
			enabled:    true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "disabled",
			limiter:    &mockLimiter{result: &cache.RateLimitResult{Allowed: false}},
			enabled:    false,
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := metrics.NewInMemory()
			handler := RateLimitUser(RateLimitConfig{
				Logger:  discardLogger(),
				Limiter: tc.limiter,
				Metrics: rec,
				Enabled: tc.enabled,
				RPM:     60,
				Burst:   5,
			})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, withSession(httptest.NewRequest(http.MethodGet, "/api/goals", nil), 3))

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if got := w.Header().Get("Retry-After"); got != tc.wantRetry {
				t.Errorf("Retry-After = %q, want %q", got, tc.wantRetry)
			}
			wantLimited := uint64(0)
			if tc.wantStatus == http.StatusTooManyRequests {
				wantLimited = 1
			}
			if rec.Snapshot().RateLimited != wantLimited {
				t.Errorf("RateLimited = %d, want %d", rec.Snapshot().RateLimited, wantLimited)
			}
		})
	}
}

func TestRateLimitIP_UsesRemoteHost(t *testing.T) {
	t.Parallel()

	limiter := &mockLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: time.Second}}
	handler := RateLimitIP(RateLimitConfig{
		Logger:  discardLogger(),
		Limiter: limiter,
		Enabled: true,
		RPM:     10,
		Burst:   5,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if limiter.lastKey != "203.0.113.7" {
		t.Errorf("limited key = %q, want 203.0.113.7", limiter.lastKey)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{200 * time.Millisecond, 1},
		{time.Second, 1},
		{2100 * time.Millisecond, 3},
	}
	for _, tc := range tests {
		if got := retryAfterSeconds(tc.in); got != tc.want {
			t.Errorf("retryAfterSeconds(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
