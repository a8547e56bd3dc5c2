package rediscache

import (
	"context"

	"github.com/itsatony/occupeye-cache/internal/config"
	"github.com/itsatony/occupeye-cache/internal/database"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/redis/go-redis/v9"
)

type ImageRepo struct {
	RedisBaseRepo
}

func NewImageRepository(db database.DB, ttl config.CacheConfig) *ImageRepo {
	return &ImageRepo{RedisBaseRepo: RedisBaseRepo{db: db, ttl: ttl}}
}

func (r *ImageRepo) SaveImage(ctx context.Context, image *models.Image) error {
	return r.execTx(ctx, "failed to write image", func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ImageDataKey(image.ID), image.Data, r.ttl.ImageTTL)
		pipe.Set(ctx, ImageContentTypeKey(image.ID), image.ContentType, r.ttl.ImageTTL)
		return nil
	})
}

// GetImage reads both halves with a single MGET so a reader never pairs a
// payload with a content type from a different write.
func (r *ImageRepo) GetImage(ctx context.Context, imageID string) (*models.Image, error) {
	vals, err := r.client().MGet(ctx, ImageDataKey(imageID), ImageContentTypeKey(imageID)).Result()
	if err != nil {
		return nil, errors.NewCacheError("failed to read image", err)
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, nil
	}
	contentType, ok := vals[1].(string)
	if !ok {
		return nil, nil
	}
	return &models.Image{ID: imageID, Data: data, ContentType: contentType}, nil
}
