// FilePath: internal/database/database.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/itsatony/occupeye-cache/internal/config"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// DB is the handle every cache repository is built on
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetClient() redis.UniversalClient
}

// RedisDB represents a Redis connection
type RedisDB struct {
	client redis.UniversalClient
}

// NewRedisDB creates a new Redis connection and verifies it answers
func NewRedisDB(cfg config.RedisConfig) (DB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	nuts.L.Infof("[RedisDB] Connected to %s/%d", cfg.Addr(), cfg.DB)
	return &RedisDB{client: client}, nil
}

// NewFromClient wraps an existing client, used by tests running miniredis.
func NewFromClient(client redis.UniversalClient) DB {
	return &RedisDB{client: client}
}

func (r *RedisDB) Close() error {
	return r.client.Close()
}

func (r *RedisDB) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisDB) GetClient() redis.UniversalClient {
	return r.client
}
