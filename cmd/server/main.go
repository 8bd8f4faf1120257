package main // Entry point of the portal server

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/admission-portal/internal/admitcard"
	"github.com/iliyamo/admission-portal/internal/config"
	"github.com/iliyamo/admission-portal/internal/database"
	"github.com/iliyamo/admission-portal/internal/gateway"
	"github.com/iliyamo/admission-portal/internal/handler"
	"github.com/iliyamo/admission-portal/internal/middleware"
	"github.com/iliyamo/admission-portal/internal/queue"
	"github.com/iliyamo/admission-portal/internal/router"
	queue_publisher "github.com/iliyamo/admission-portal/internal/service"
	"github.com/iliyamo/admission-portal/internal/session"
	"github.com/iliyamo/admission-portal/internal/workspace"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; real env vars still apply
	cfg := config.Load()

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	backend := sessionBackend(cfg, rdb)

	transport, err := gateway.NewTransport(gateway.Config{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		RatePerSec: cfg.APIRatePerSec,
		Burst:      cfg.APIRateBurst,
	})
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reg := workspace.NewRegistry(transport, backend, cfg.SessionTTL, cfg.WorkspaceIdle)
	go reg.Run(ctx, time.Minute)

	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		go func() {
			if err := queue.StartJourneyConsumer(qcfg); err != nil {
				log.Printf("[journey-consumer] stopped: %v", err)
			}
		}()
	}

	mediaBase := cfg.MediaBaseURL
	if mediaBase == "" {
		mediaBase = origin(transport.BaseURL())
	}
	h := handler.NewPortalHandler(queue_publisher.New(qcfg), admitcard.Renderer{MediaBase: mediaBase})

	e := router.NewPortal(router.Deps{
		Registry: reg,
		Session: middleware.SessionConfig{
			CookieName: cfg.SessionCookie,
			TTL:        cfg.SessionTTL,
			Secure:     cfg.SecureCookie,
		},
		Handler: h,
		Cache:   middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		Limiter: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})
	e.Use(echomw.Logger())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, api=%s, sessions=%s)", addr, cfg.Env, cfg.APIBaseURL, cfg.SessionBackend)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// sessionBackend picks the session store.  Redis falls back to process
// memory when the server is unreachable; MySQL failures are fatal.
func sessionBackend(cfg config.Config, rdb *redis.Client) session.Backend {
	switch cfg.SessionBackend {
	case config.SessionRedis:
		if rdb != nil {
			return session.NewRedisBackend(rdb, "session")
		}
		log.Printf("[session] redis unavailable, using memory backend")
	case config.SessionMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		sb := session.NewSQLBackend(db)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sb.EnsureSchema(ctx); err != nil {
			log.Fatalf("session schema: %v", err)
		}
		return sb
	}
	return session.NewMemoryBackend()
}

// origin returns scheme://host of a URL.
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
