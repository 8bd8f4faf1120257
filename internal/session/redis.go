package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each record as a JSON string under <prefix>:<id>
// with a TTL matching the record's expiry.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisBackend returns a backend using rdb.  An empty prefix defaults to
// "sess".
func NewRedisBackend(rdb *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "sess"
	}
	return &RedisBackend{rdb: rdb, prefix: prefix}
}

func (r *RedisBackend) key(id string) string { return r.prefix + ":" + id }

func (r *RedisBackend) Load(ctx context.Context, id string) (Record, error) {
	bs, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("redis get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(bs, &rec); err != nil {
		return Record{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

func (r *RedisBackend) Save(ctx context.Context, id string, rec Record) error {
	bs, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(rec.ExpiresAt)
	if rec.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl < time.Second {
		// already expired: nothing worth keeping
		return r.Delete(ctx, id)
	}
	if err := r.rdb.Set(ctx, r.key(id), bs, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
