package middleware

import (
	"context"  // Context for Redis operations
	"errors"   // Error construction
	"fmt"      // Key formatting
	"net/http" // HTTP status codes
	"strconv"  // Header values
	"strings"  // String manipulation
	"time"     // Window arithmetic

	"camera_market/internal/api/render" // Error responses
	"camera_market/internal/apperror"   // Error taxonomy
	"camera_market/internal/utils"      // Cache call timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter counts requests per key in fixed Redis-backed windows
type FixedWindowLimiter struct {
	rdb    redis.Cmdable
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewFixedWindowLimiter allows limit requests per key per window
func NewFixedWindowLimiter(rdb redis.Cmdable, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &FixedWindowLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window, now: time.Now}, nil
}

// Allow reports whether key is still within quota for the current window
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, utils.CallTimeout) // Bound the round trip
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.rdb, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, err
	}
	return count <= int64(l.limit), nil
}

// RateLimit rejects clients that exceed the limiter's quota with 429
func RateLimit(l *FixedWindowLimiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next() // Limiting disabled
			return
		}
		allowed, err := l.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			render.Abort(c, apperror.Unavailable("rate limiter", err))
			return
		}
		if !allowed {
			logrus.WithFields(logrus.Fields{"scope": scope, "client_ip": c.ClientIP()}).Warn("Rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, render.ErrorResponse{
				Error:   "rate_limited",
				Message: "too many requests, try again later",
			})
			return
		}
		c.Next()
	}
}
