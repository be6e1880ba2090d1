package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/damoang/qna-revision/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// RateLimitConfig configures the edit rate limiter
type RateLimitConfig struct {
	KeyPrefix         string
	Message           string
	RequestsPerMinute int
}

// DefaultRateLimitConfig returns the default edit rate limit
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 30,
		KeyPrefix:         "qna:ratelimit:edit:",
		Message:           "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.",
	}
}

// rateLimitScript is an atomic sliding window: {allowed, remaining, reset_at_ms}
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local window_start = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('EXPIRE', key, math.ceil(window / 1000) + 1)
    return {1, limit - count - 1, 0}
else
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local reset_at = 0
    if #oldest >= 2 then
        reset_at = tonumber(oldest[2]) + window
    end
    return {0, 0, reset_at}
end
`)

// RateLimitPerUser limits requests per authenticated user, falling back to
// the client IP. A nil client or a non-positive limit disables it; Redis
// errors fail open.
func RateLimitPerUser(client redis.Scripter, cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || cfg.RequestsPerMinute <= 0 {
			c.Next()
			return
		}

		subject := GetUserID(c)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}

		now := time.Now().UnixMilli()
		result, err := rateLimitScript.Run(c.Request.Context(), client, []string{cfg.KeyPrefix + subject},
			cfg.RequestsPerMinute, rateLimitWindow.Milliseconds(), now,
		).Int64Slice()
		if err != nil || len(result) != 3 {
			logger.GetLogger().Warn().Err(err).Str("subject", subject).Msg("rate limit check skipped")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result[1], 10))

		if result[0] != 1 {
			retryAfter := (result[2] - now) / 1000
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"code": "RATE_LIMITED", "message": cfg.Message},
			})
			return
		}

		c.Next()
	}
}
