package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/cache"
	"github.com/goalfund/goalfund/internal/metrics"
)

// RateLimiter checks token buckets. *cache.Cache implements it.
type RateLimiter interface {
	CheckUserRateLimit(ctx context.Context, userID int64, ratePerMinute, burst int) (*cache.RateLimitResult, error)
	CheckIPRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for the rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Metrics metrics.Recorder
	Enabled bool
	// RPM is the sustained requests per minute; Burst is the bucket size.
	RPM   int
	Burst int
}

func (cfg *RateLimitConfig) active() bool {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	return cfg.Enabled && cfg.Limiter != nil && cfg.RPM > 0
}

// RateLimitUser limits authenticated requests per user. It must run after
// Auth.
func RateLimitUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	enabled := cfg.active()
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := auth.UserIDFromContext(r.Context())
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.CheckUserRateLimit(r.Context(), userID, cfg.RPM, cfg.Burst)
			if err != nil {
				// Limiter errors fail open.
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.Int64("user_id", userID),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.RPM, result.Remaining, result.ResetAt)
			if !result.Allowed {
				limited(cfg, w, r, result, slog.Int64("user_id", userID))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitIP limits requests per client address. It guards the
// unauthenticated auth endpoints.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	enabled := cfg.active()
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), ip, cfg.RPM, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("IP rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("ip", ip),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				limited(cfg, w, r, result, slog.String("ip", ip))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func limited(cfg RateLimitConfig, w http.ResponseWriter, r *http.Request, result *cache.RateLimitResult, who slog.Attr) {
	retry := retryAfterSeconds(result.RetryAfter)
	cfg.Metrics.IncRateLimited()
	cfg.Logger.Warn("rate limit exceeded",
		who,
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Int("retry_after_seconds", retry),
		slog.String("request_id", GetRequestID(r.Context())),
	)

	w.Header().Set("Retry-After", strconv.Itoa(retry))
	writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
		"rate limit exceeded, retry after "+strconv.Itoa(retry)+" seconds")
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already applied any trusted forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
