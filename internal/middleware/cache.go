package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/admission-portal/internal/config"
)

// listingEntry is one cached listing response.
type listingEntry struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// teeWriter forwards the response and keeps a copy of up to limit bytes.
type teeWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int
    truncated bool
}

func (w *teeWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }

func (w *teeWriter) Write(b []byte) (int, error) {
    if !w.truncated {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.truncated = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

// listingKey is keyed on the concrete path, not the route pattern:
// /subcategories/1 and /subcategories/2 are different entries.
func listingKey(cfg config.CacheConfig, r *http.Request) string {
    tail := r.URL.Path
    if cfg.WithQuery && r.URL.RawQuery != "" {
        tail += "?" + r.URL.RawQuery
    }
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// NewRedisCache caches GET listing responses in Redis.  Only complete 200
// JSON responses are stored; the session cookie is never replayed.  A Redis
// failure serves the request uncached.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if req.Method != http.MethodGet {
                return next(c)
            }
            key := listingKey(cfg, req)

            if raw, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
                var hit listingEntry
                if json.Unmarshal(raw, &hit) == nil && hit.Status != 0 {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(hit.Status, hit.ContentType, hit.Body)
                }
            } else if err != redis.Nil {
                c.Logger().Warnf("[cache] get %s: %v", key, err)
            }

            tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = tw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }

            ct := c.Response().Header().Get(echo.HeaderContentType)
            if tw.status != http.StatusOK || tw.truncated || !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
                return nil
            }
            raw, err := json.Marshal(listingEntry{Status: tw.status, ContentType: ct, Body: tw.buf.Bytes()})
            if err != nil {
                return nil
            }
            ctx, cancel := context.WithTimeout(context.Background(), time.Second)
            defer cancel()
            if err := rdb.SetEx(ctx, key, raw, cfg.TTL).Err(); err != nil {
                c.Logger().Warnf("[cache] set %s: %v", key, err)
            }
            return nil
        }
    }
}
