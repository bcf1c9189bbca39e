package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitSessionPrefix = "ratelimit:session:"
	rateLimitIPPrefix      = "ratelimit:ip:"

	rateLimitSessionTTL = 2 * time.Minute
	rateLimitIPTTL      = 30 * time.Second
)

// RateLimitResult reports the outcome of one token-bucket check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and takes one token atomically.
// Times are in milliseconds; the rate is tokens per millisecond.
// Returns {allowed, retry_after_ms, remaining, full_in_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local data = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(data[1]) or burst
local ts = tonumber(data[2]) or now

if now > ts then
  tokens = math.min(burst, tokens + (now - ts) * rate)
end

local allowed = 0
local retry_after = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  retry_after = math.ceil((1 - tokens) / rate)
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'ts', now)
redis.call('PEXPIRE', key, ttl)

local full_in = math.ceil((burst - tokens) / rate)
return {allowed, retry_after, math.floor(tokens), full_in}
`)

// CheckSessionRateLimit takes a token from the session's API bucket.
// A non-positive rate disables the limit.
func (c *Cache) CheckSessionRateLimit(ctx context.Context, sessionID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return unlimited(burst), nil
	}
	perMilli := float64(ratePerMinute) / float64(time.Minute/time.Millisecond)
	return c.takeToken(ctx, rateLimitSessionPrefix+sessionID, perMilli, burst, rateLimitSessionTTL)
}

// CheckIPRateLimit takes a token from the client IP's bucket for scope.
// The IP is hashed before it reaches Redis.
func (c *Cache) CheckIPRateLimit(ctx context.Context, scope, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 {
		return unlimited(burst), nil
	}
	perMilli := float64(ratePerSecond) / float64(time.Second/time.Millisecond)
	return c.takeToken(ctx, ipRateLimitKey(scope, ip), perMilli, burst, rateLimitIPTTL)
}

// takeToken returns an error when Redis is unavailable; callers decide
// whether to fail open.
func (c *Cache) takeToken(ctx context.Context, key string, perMilli float64, burst int, ttl time.Duration) (*RateLimitResult, error) {
	if burst < 1 {
		burst = 1
	}
	now := time.Now()

	res, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		perMilli, burst, now.UnixMilli(), ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("rate limit script: unexpected reply length %d", len(res))
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
		Remaining:  res[2],
		ResetAt:    now.Add(time.Duration(res[3]) * time.Millisecond),
	}, nil
}

func unlimited(burst int) *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(burst),
		ResetAt:   time.Now().Add(time.Minute),
	}
}

// ipRateLimitKey namespaces IP buckets so sign-in and sign-up are limited separately.
func ipRateLimitKey(scope, ip string) string {
	if scope == "" {
		return rateLimitIPPrefix + hashIP(ip)
	}
	return rateLimitIPPrefix + scope + ":" + hashIP(ip)
}

// hashIP returns the first 8 bytes of SHA-256(ip) as hex.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
