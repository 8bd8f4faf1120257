package config

import (
    "log"
    "strings"
    "time"
)

// RateKey selects what a login throttle bucket is keyed on.
type RateKey string

const (
    RateKeyIP           RateKey = "ip"            // one bucket per client address
    RateKeyIPRoute      RateKey = "ip_route"      // per address and screen
    RateKeySessionRoute RateKey = "session_route" // per browser session and screen
)

// RateLimitConfig configures the login and signup throttle.  The default
// allows a burst of 10 attempts, then one every 6s per client IP and screen.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int           // bucket size
    RefillTokens   int           // tokens added per interval
    RefillInterval time.Duration
    TTL            time.Duration // idle buckets expire after this
    Key            RateKey
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables and clamps them to
// a working bucket.  An unknown key strategy falls back to ip_route.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       max(envInt("RATE_LIMIT_CAPACITY", 10), 1),
        RefillTokens:   max(envInt("RATE_LIMIT_REFILL_TOKENS", 1), 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        Key:            RateKey(strings.ToLower(envStr("RATE_LIMIT_KEY", string(RateKeyIPRoute)))),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "login"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    switch cfg.Key {
    case RateKeyIP, RateKeyIPRoute, RateKeySessionRoute:
    default:
        log.Printf("[config] unknown RATE_LIMIT_KEY %q, using %s", cfg.Key, RateKeyIPRoute)
        cfg.Key = RateKeyIPRoute
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // A bucket must outlive a few refills or it resets to full too early.
    cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
    return cfg
}
