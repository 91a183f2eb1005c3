package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // zero or less disables the limiter
	Window            time.Duration // fixed window length
	KeyPrefix         string        // Redis key prefix, one per limited route
}

// fixedWindow counts a hit and returns {count, remaining ttl in ms}. The window
// starts at the first hit and is repaired if the key ever lost its expiry.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RateLimitMiddleware limits requests per signed-in user, or per client IP for
// anonymous callers. Requests pass when Redis is unavailable.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if redisClient == nil || config.RequestsPerWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(config.KeyPrefix, r)

			res, err := fixedWindow.Run(r.Context(), redisClient, []string{key}, config.Window.Milliseconds()).Int64Slice()
			if err != nil || len(res) != 2 {
				logger.Error("Failed to count request for rate limit",
					zap.Error(err),
					zap.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}
			count, ttl := res[0], time.Duration(res[1])*time.Millisecond

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

			if count > int64(config.RequestsPerWindow) {
				logger.Warn("Rate limit exceeded",
					zap.String("key", key),
					zap.Int64("count", count),
					zap.Int("limit", config.RequestsPerWindow),
				)

				retryAfter := int((ttl + time.Second - 1) / time.Second)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				RespondWithError(w, http.StatusTooManyRequests, "too many requests, try again later")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(config.RequestsPerWindow)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(prefix string, r *http.Request) string {
	if userID, ok := GetUserID(r.Context()); ok && userID != "" {
		return fmt.Sprintf("%s:user:%s", prefix, userID)
	}

	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	return fmt.Sprintf("%s:ip:%s", prefix, host)
}
