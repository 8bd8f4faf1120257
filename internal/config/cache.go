package config

import (
    "time"
)

// CacheConfig configures the Redis cache in front of the category and
// subcategory listings.  The listings are the same for every user, so one
// entry serves all sessions until TTL runs out.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    WithQuery    bool // include the raw query string in the key
    MaxBodyBytes int  // larger responses are served but not stored
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "listing"),
        WithQuery:    envBool("CACHE_KEY_QUERY", false),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 { cfg.TTL = 30 * time.Second }
    return cfg
}
