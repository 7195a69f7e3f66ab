package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/pkg/response"
)

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request.
type KeyFunc func(c *gin.Context) string

// KeyByIP limits by client IP only.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath limits by client IP and route.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByPrincipal limits per signed-in user, per IP for anonymous callers.
func KeyByPrincipal() KeyFunc {
	return func(c *gin.Context) string {
		p := CurrentPrincipal(c)
		if p == nil {
			return "rl:user:anon:ip:" + ipFromCtx(c)
		}
		return "rl:user:" + strconv.FormatInt(p.UserID, 10)
	}
}

// Lua script: atomic INCR + set EXPIRE on first hit
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type AllowFunc func(*gin.Context) bool // return true for bypass limit

// RejectFunc answers a request over the limit. It must abort the chain.
type RejectFunc func(c *gin.Context, retryAfter int)

// RejectJSON answers 429 with the API envelope.
func RejectJSON(c *gin.Context, _ int) {
	response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
}

// RateLimitOptions configures RateLimit. Zero Max or Window disables it.
type RateLimitOptions struct {
	Max    int
	Window time.Duration
	Key    KeyFunc
	Allow  AllowFunc
	Reject RejectFunc
	Logger *logrus.Logger
}

// RateLimit with:
// - atomic redis (lua)
// - standard headers (limit/remaining/reset)
// - optional allowlist bypass & method skip
// Redis errors fail open.
func RateLimit(rdb *redis.Client, opts RateLimitOptions) gin.HandlerFunc {
	if rdb == nil || opts.Max <= 0 || opts.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if opts.Key == nil {
		opts.Key = KeyByIPAndPath()
	}
	if opts.Reject == nil {
		opts.Reject = RejectJSON
	}
	return func(c *gin.Context) {
		if opts.Allow != nil && opts.Allow(c) {
			c.Next()
			return
		}
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := opts.Key(c)

		countI, err := incrExpireScript.Run(ctx, rdb, []string{key}, opts.Window.Milliseconds()).Result()
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.WithError(err).WithField("key", key).Warn("rate limit check failed")
			}
			c.Next()
			return
		}
		count := toInt(countI)

		ttl, _ := rdb.PTTL(ctx, key).Result()
		resetSec := 0
		if ttl > 0 {
			resetSec = int((ttl + time.Second - 1) / time.Second)
		}

		remaining := opts.Max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(opts.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > opts.Max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			if opts.Logger != nil {
				opts.Logger.WithFields(logrus.Fields{"key": key, "count": count}).Warn("rate limit exceeded")
			}
			opts.Reject(c, resetSec)
			return
		}
		c.Next()
	}
}

func toInt(v interface{}) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case string:
		i, _ := strconv.Atoi(x)
		return i
	}
	return 0
}
