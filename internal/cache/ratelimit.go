package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitUserPrefix = "ratelimit:user:"
	rateLimitIPPrefix   = "ratelimit:ip:"
	rateLimitTTL        = 120 * time.Second
)

// RateLimitResult is the outcome of one token bucket check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes a bucket in one atomic step.
// Returns {allowed, retry_after_seconds, remaining_tokens}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// CheckUserRateLimit consumes one token from the user's bucket.
// A ratePerMinute of 0 disables the limit.
func (c *Cache) CheckUserRateLimit(ctx context.Context, userID int64, ratePerMinute, burst int) (*RateLimitResult, error) {
	key := rateLimitUserPrefix + strconv.FormatInt(userID, 10)
	return c.checkPerMinute(ctx, key, ratePerMinute, burst)
}

// CheckIPRateLimit consumes one token from the bucket of a client address.
// The address is hashed before it reaches Redis.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerMinute, burst int) (*RateLimitResult, error) {
	return c.checkPerMinute(ctx, rateLimitIPPrefix+HashKey(ip), ratePerMinute, burst)
}

func (c *Cache) checkPerMinute(ctx context.Context, key string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return allowAll(burst), nil
	}
	return c.checkRateLimit(ctx, key, float64(ratePerMinute)/60.0, burst)
}

// checkRateLimit fails open: on Redis errors the request is allowed and the
// error is returned for logging.
func (c *Cache) checkRateLimit(ctx context.Context, key string, ratePerSecond float64, burst int) (*RateLimitResult, error) {
	now := time.Now()

	result, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		ratePerSecond, burst, now.Unix(), int(rateLimitTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return allowAll(burst), fmt.Errorf("run token bucket: %w", err)
	}
	if len(result) != 3 {
		return allowAll(burst), fmt.Errorf("token bucket returned %d values", len(result))
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		Remaining:  result[2],
		ResetAt:    now.Add(time.Duration(float64(time.Second) / ratePerSecond)),
		RetryAfter: time.Duration(result[1]) * time.Second,
	}, nil
}

func allowAll(burst int) *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(burst),
		ResetAt:   time.Now().Add(time.Minute),
	}
}

// HashKey returns a short stable digest of s for use in cache keys.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
