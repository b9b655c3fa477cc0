package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-sessions/internal/repository"
)

// DefaultSnapshotKey is used when no key is configured.
const DefaultSnapshotKey = "cinema:snapshot"

// RedisStore keeps the document under a single Redis key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (r *RedisStore) Save(ctx context.Context, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, opts ...repository.Option) (*Snapshot, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return Decode(data, opts...)
}

// Close leaves the client open; it is shared with the rate limiter.
func (r *RedisStore) Close() error { return nil }
