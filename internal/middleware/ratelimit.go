package middleware

import (
    "context"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/admission-portal/internal/config"
)

// bucketScript refills KEYS[1] by ARGV[3] tokens every ARGV[4] ms up to
// ARGV[2], then takes one.  It returns {allowed, remaining, retry_ms}.
var bucketScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local every = tonumber(ARGV[4])

local st = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens = tonumber(st[1]) or capacity
local at = tonumber(st[2]) or now

local steps = math.floor(math.max(0, now - at) / every)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  at = at + steps * every
end

local allowed, retry = 0, 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.max(0, every - (now - at))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
return {allowed, tokens, retry}
`)

type bucket struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
}

// take spends one token from key.
func (b bucket) take(ctx context.Context, key string) (allowed bool, remaining int64, retry time.Duration, err error) {
    res, err := bucketScript.Run(ctx, b.rdb, []string{key},
        time.Now().UnixMilli(),
        b.cfg.Capacity,
        b.cfg.RefillTokens,
        b.cfg.RefillInterval.Milliseconds(),
        int64(b.cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return false, 0, 0, err
    }
    if len(res) != 3 {
        return false, 0, 0, redis.Nil
    }
    return res[0] == 1, res[1], time.Duration(res[2]) * time.Millisecond, nil
}

// NewTokenBucket throttles login and signup attempts per client with a
// Redis token bucket.  Redis errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    b := bucket{cfg: cfg, rdb: rdb}
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            allowed, remaining, retry, err := b.take(c.Request().Context(), key)
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] key=%s: %v", key, err)
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if allowed {
                return next(c)
            }

            secs := int(math.Ceil(retry.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                c.Logger().Infof("[ratelimit] block key=%s retry=%s", key, retry)
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "Too many attempts. Please wait and try again.",
                "retry_after": secs,
            })
        }
    }
}

// rateKey composes the bucket key.  A session key alone is easy to shed by
// dropping the cookie, so the default also includes the client IP.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()
    parts := []string{cfg.Prefix}
    switch cfg.Key {
    case config.RateKeyIP:
        parts = append(parts, "ip", ip)
    case config.RateKeySessionRoute:
        parts = append(parts, "sess", sessionID(c), "route", route)
    default: // ip_route
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}
