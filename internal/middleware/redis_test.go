package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/admission-portal/internal/config"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestListingKeyUsesConcretePath(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "listing"}
	a := listingKey(cfg, httptest.NewRequest(http.MethodGet, "/subcategories/1?x=1", nil))
	b := listingKey(cfg, httptest.NewRequest(http.MethodGet, "/subcategories/2?x=1", nil))
	c := listingKey(cfg, httptest.NewRequest(http.MethodGet, "/subcategories/1?x=2", nil))
	if a == b {
		t.Fatal("different paths share a key")
	}
	if a != c {
		t.Fatal("query changed the key without WithQuery")
	}
	cfg.WithQuery = true
	if listingKey(cfg, httptest.NewRequest(http.MethodGet, "/subcategories/1?x=1", nil)) ==
		listingKey(cfg, httptest.NewRequest(http.MethodGet, "/subcategories/1?x=2", nil)) {
		t.Fatal("query ignored with WithQuery")
	}
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	e := echo.New()
	calls := 0
	h := func(c echo.Context) error { calls++; return c.String(http.StatusOK, "ok") }
	e.GET("/x", h, NewRedisCache(config.CacheConfig{Enabled: true}, nil), NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
			t.Fatalf("got %d cache=%q", rec.Code, rec.Header().Get("X-Cache"))
		}
	}
	if calls != 3 {
		t.Fatalf("handler ran %d times", calls)
	}
}

func TestRedisCacheHit(t *testing.T) {
	rdb := testRedis(t)
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "test-listing-" + time.Now().Format("150405.000"), MaxBodyBytes: 1 << 10}
	e := echo.New()
	calls := 0
	e.GET("/categories", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"items": []string{"Admission 2026"}})
	}, NewRedisCache(cfg, rdb))

	first := httptest.NewRecorder()
	e.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/categories", nil))
	second := httptest.NewRecorder()
	e.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/categories", nil))

	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("cache headers %q then %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if calls != 1 || first.Body.String() != second.Body.String() {
		t.Fatalf("calls=%d first=%q second=%q", calls, first.Body.String(), second.Body.String())
	}
	_ = rdb.Del(context.Background(), listingKey(cfg, httptest.NewRequest(http.MethodGet, "/categories", nil))).Err()
}

func TestTokenBucketBlocks(t *testing.T) {
	rdb := testRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Minute,
		Key:            config.RateKeyIPRoute,
		Prefix:         "test-rl-" + time.Now().Format("150405.000"),
	}
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		e.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
	if last.Header().Get("Retry-After") == "" || last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("headers = %v", last.Header())
	}
}
