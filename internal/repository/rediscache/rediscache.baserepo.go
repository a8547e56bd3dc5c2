package rediscache

import (
	"context"

	"github.com/itsatony/occupeye-cache/internal/config"
	"github.com/itsatony/occupeye-cache/internal/database"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/redis/go-redis/v9"
)

type RedisBaseRepo struct {
	db  database.DB
	ttl config.CacheConfig
}

func (r *RedisBaseRepo) client() redis.UniversalClient {
	return r.db.GetClient()
}

// execTx runs fn inside MULTI/EXEC so the queued writes apply as one unit.
func (r *RedisBaseRepo) execTx(ctx context.Context, msg string, fn func(pipe redis.Pipeliner) error) error {
	if _, err := r.client().TxPipelined(ctx, fn); err != nil {
		return errors.NewCacheError(msg, err)
	}
	return nil
}

// pipelined queues reads in one round trip. It returns the raw commands so
// callers can inspect results individually.
func (r *RedisBaseRepo) pipelined(ctx context.Context, msg string, fn func(pipe redis.Pipeliner) error) ([]redis.Cmder, error) {
	cmds, err := r.client().Pipelined(ctx, fn)
	if err != nil && err != redis.Nil {
		return nil, errors.NewCacheError(msg, err)
	}
	return cmds, nil
}

func (r *RedisBaseRepo) listLen(ctx context.Context, key string) (int64, error) {
	n, err := r.client().LLen(ctx, key).Result()
	if err != nil {
		return 0, errors.NewCacheError("failed to read list length", err)
	}
	return n, nil
}

func (r *RedisBaseRepo) listAll(ctx context.Context, key string) ([]string, error) {
	vals, err := r.client().LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, errors.NewCacheError("failed to read list", err)
	}
	return vals, nil
}

func (r *RedisBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewCacheError("failed to ping cache", err)
	}
	return nil
}
