package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/admission-portal/internal/model"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "exp": exp.Unix()})
	raw, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestStoreSetGetClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend(), "browser-1", time.Hour)

	if s.IsAuthenticated(ctx) {
		t.Fatalf("expected fresh store to be anonymous")
	}
	if err := s.Set(ctx, "opaque-token"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := s.Get(ctx); got != "opaque-token" {
		t.Fatalf("expected opaque-token, got %q", got)
	}
	if !s.IsAuthenticated(ctx) {
		t.Fatalf("expected authenticated after set")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.IsAuthenticated(ctx) {
		t.Fatalf("expected anonymous after clear")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second clear should be a no-op, got %v", err)
	}
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	a := NewStore(backend, "a", time.Hour)
	b := NewStore(backend, "b", time.Hour)
	_ = a.Set(ctx, "token-a")
	if b.IsAuthenticated(ctx) {
		t.Fatalf("expected session b to stay anonymous")
	}
}

func TestStoreSetPairKeepsRefresh(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend(), "browser", time.Hour)
	_ = s.SetPair(ctx, model.TokenPair{Access: "a1", Refresh: "r1", Username: "rahim"})
	_ = s.Set(ctx, "a2")
	rec, ok := s.Record(ctx)
	if !ok {
		t.Fatalf("expected record")
	}
	if rec.Token != "a2" || rec.Refresh != "r1" || rec.Username != "rahim" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestTokenExpiryBoundsRecord(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	now := time.Now()
	backend.now = func() time.Time { return now }
	s := NewStore(backend, "browser", 24*time.Hour)

	exp := now.Add(10 * time.Minute)
	if err := s.Set(ctx, signed(t, exp)); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec, _ := s.Record(ctx)
	if rec.ExpiresAt.Unix() != exp.Unix() {
		t.Fatalf("expected expiry %v, got %v", exp.UTC(), rec.ExpiresAt)
	}

	backend.now = func() time.Time { return now.Add(11 * time.Minute) }
	if s.IsAuthenticated(ctx) {
		t.Fatalf("expected expired token to read as absent")
	}
	if n, _ := backend.Purge(ctx); n != 0 {
		t.Fatalf("expected load to have already dropped the record, purged %d", n)
	}
}

func TestTokenExpiryOpaqueToken(t *testing.T) {
	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Fatalf("expected opaque token to have no expiry")
	}
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	s := NewStore(NewRedisBackend(rdb, "test-sess"), "redis-browser", time.Minute)
	if err := s.Set(ctx, "token"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if s.Get(ctx) != "token" {
		t.Fatalf("expected token round trip through redis")
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.IsAuthenticated(ctx) {
		t.Fatalf("expected cleared session")
	}
}
