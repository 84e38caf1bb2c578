package repo

import (
	"context"
	"errors"
	"time"

	errx "github.com/ivy-assistant/server/internal/core/error"
	logx "github.com/ivy-assistant/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load state from redis")
		return nil, false, errx.WrapRedis(err)
	}
	return b, true, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, blob []byte, ttl time.Duration) error {
	// zero expiration keeps the key until an external retention policy removes it
	if ttl < 0 {
		ttl = 0
	}
	if err := r.rdb.Set(ctx, key, blob, ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Dur("ttl", ttl).Msg("failed to save state to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
