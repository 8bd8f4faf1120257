package config

// Redis backs the session store (SESSION_BACKEND=redis), the login throttle
// and the listing cache.  When it cannot be reached at startup those
// features degrade: sessions stay in process memory, and listings and logins
// go through unthrottled and uncached.

import (
    "context"
    "crypto/tls"
    "log"
    "net"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds the connection settings.
type RedisConfig struct {
    Addr     string // host:port, REDIS_ADDR or REDIS_HOST + REDIS_PORT
    Password string
    DB       int
    TLS      bool
    Ping     time.Duration // startup probe timeout
}

// LoadRedisConfig reads the REDIS_* variables.  REDIS_HOST and REDIS_PORT
// win over REDIS_ADDR when both are set.
func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = net.JoinHostPort(host, port)
    }
    return RedisConfig{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
        Ping:     envDur("REDIS_PING_TIMEOUT", 2*time.Second),
    }
}

// NewRedisClient connects with the REDIS_* settings and returns nil when the
// server does not answer a ping.
func NewRedisClient() *redis.Client {
    return DialRedis(LoadRedisConfig())
}

// DialRedis connects with cfg and returns nil when the server does not
// answer a ping.
func DialRedis(cfg RedisConfig) *redis.Client {
    opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
    if cfg.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), cfg.Ping)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("[redis] %s unreachable, running without it: %v", cfg.Addr, err)
        _ = client.Close()
        return nil
    }
    log.Printf("[redis] connected to %s db=%d", cfg.Addr, cfg.DB)
    return client
}
