package rediscache

import (
	"context"
	"strconv"
	"time"

	"github.com/itsatony/occupeye-cache/internal/database"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/redis/go-redis/v9"
)

// TokenRepo shares the upstream credential between instances. The entries
// carry no TTL; validity is decided by the stored expiry.
type TokenRepo struct {
	RedisBaseRepo
}

func NewTokenRepository(db database.DB) *TokenRepo {
	return &TokenRepo{RedisBaseRepo: RedisBaseRepo{db: db}}
}

func (r *TokenRepo) LoadCredential(ctx context.Context) (*models.Credential, error) {
	vals, err := r.client().MGet(ctx, AccessTokenKey, AccessTokenExpiryKey).Result()
	if err != nil {
		return nil, errors.NewCacheError("failed to read access token", err)
	}
	token, ok := vals[0].(string)
	if !ok || token == "" {
		return nil, nil
	}
	rawExpiry, ok := vals[1].(string)
	if !ok {
		return nil, nil
	}
	expiry, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		// An unreadable expiry is treated like a missing one.
		return nil, nil
	}
	return &models.Credential{Token: token, Expiry: time.Unix(expiry, 0)}, nil
}

func (r *TokenRepo) SaveCredential(ctx context.Context, cred *models.Credential) error {
	return r.execTx(ctx, "failed to write access token", func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, AccessTokenKey, cred.Token, 0)
		pipe.Set(ctx, AccessTokenExpiryKey, strconv.FormatInt(cred.Expiry.Unix(), 10), 0)
		return nil
	})
}
