package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("API_BASE_URL", "http://localhost:8000/api")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("API_TIMEOUT", "")

	cfg := Load()
	if cfg.SessionBackend != SessionMemory {
		t.Errorf("backend = %q", cfg.SessionBackend)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("timeout = %s", cfg.APITimeout)
	}
	if cfg.SessionCookie != "portal_session" || cfg.SessionTTL != 24*time.Hour {
		t.Errorf("cookie = %q ttl = %s", cfg.SessionCookie, cfg.SessionTTL)
	}
	if cfg.DBUser != "" {
		t.Errorf("db settings read for memory backend: %q", cfg.DBUser)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("API_BASE_URL", "https://portal.example/api")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("API_RATE_PER_SEC", "2.5")
	t.Setenv("SESSION_BACKEND", "MySQL")
	t.Setenv("SESSION_SECURE_COOKIE", "yes")
	t.Setenv("DB_USER", "portal")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "portal")

	cfg := Load()
	if cfg.APITimeout != 3*time.Second || cfg.APIRatePerSec != 2.5 {
		t.Errorf("timeout = %s rate = %v", cfg.APITimeout, cfg.APIRatePerSec)
	}
	if cfg.SessionBackend != SessionMySQL || !cfg.SecureCookie {
		t.Errorf("backend = %q secure = %v", cfg.SessionBackend, cfg.SecureCookie)
	}
	if cfg.DBHost != "db" || cfg.DBName != "portal" {
		t.Errorf("db = %+v", cfg)
	}
}

func TestRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("capacity = %d", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Errorf("ttl = %s, want 5 refill intervals", cfg.TTL)
	}
}

func TestRateLimitKey(t *testing.T) {
	t.Setenv("RATE_LIMIT_KEY", "Session_Route")
	if cfg := LoadRateLimitConfig(); cfg.Key != RateKeySessionRoute {
		t.Errorf("key = %q", cfg.Key)
	}
	t.Setenv("RATE_LIMIT_KEY", "route_query_everything")
	if cfg := LoadRateLimitConfig(); cfg.Key != RateKeyIPRoute {
		t.Errorf("unknown key kept: %q", cfg.Key)
	}
}

func TestCacheConfig(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "off")
	t.Setenv("CACHE_TTL", "-1s")
	t.Setenv("CACHE_KEY_QUERY", "true")

	cfg := LoadCacheConfig()
	if cfg.Enabled || !cfg.WithQuery {
		t.Errorf("cache = %+v", cfg)
	}
	if cfg.TTL != 30*time.Second || cfg.Prefix != "listing" || cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestQueueConfig(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
	t.Setenv("EVENTS_ENABLED", "1")

	cfg := LoadQueueConfig()
	if cfg.URL != "amqp://u:p@mq:5672/" || !cfg.Enabled || cfg.Queue != "admission.events" || cfg.LogDir != "logs" {
		t.Errorf("queue = %+v", cfg)
	}
}

func TestRedisConfigHostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadRedisConfig()
	if cfg.Addr != "redis:6379" || cfg.DB != 2 || cfg.TLS {
		t.Errorf("redis = %+v", cfg)
	}
	if cfg.Ping != 2*time.Second {
		t.Errorf("ping = %s", cfg.Ping)
	}
}

func TestDialRedisUnreachable(t *testing.T) {
	if c := DialRedis(RedisConfig{Addr: "127.0.0.1:1", Ping: 200 * time.Millisecond}); c != nil {
		t.Fatal("expected nil client for a closed port")
	}
}
