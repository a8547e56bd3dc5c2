package cacheservice

import (
	"context"
	"encoding/base64"

	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/itsatony/occupeye-cache/internal/monitoring"
	"github.com/itsatony/occupeye-cache/internal/notify"
	nuts "github.com/vaudience/go-nuts"
)

// RefreshImage downloads an image and caches it base64 encoded.
func (s *CacheService) RefreshImage(ctx context.Context, imageID string) error {
	_, err := s.fetchImage(ctx, imageID)
	return err
}

func (s *CacheService) fetchImage(ctx context.Context, imageID string) (*models.Image, error) {
	data, contentType, err := s.upstream.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	image := &models.Image{
		ID:          imageID,
		Data:        base64.StdEncoding.EncodeToString(data),
		ContentType: contentType,
	}
	if err := s.Images.SaveImage(ctx, image); err != nil {
		return nil, err
	}
	nuts.L.Infof("[CacheService] Cached image %s (%s, %d bytes)", imageID, contentType, len(data))
	s.notifier.Emit(notify.ImageCached, imageID)
	return image, nil
}

// GetImage returns a map image, fetching it on a cache miss. Payload and
// content type are always read together.
func (s *CacheService) GetImage(ctx context.Context, imageID string) (*models.Image, error) {
	if !isDigits(imageID) {
		return nil, errors.NewBadRequestError("image id must be numeric", nil).
			WithDetails(map[string]string{"image_id": imageID})
	}

	image, err := s.Images.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if image != nil {
		monitoring.RecordLookup("image", true)
		return image, nil
	}
	monitoring.RecordLookup("image", false)
	return s.fetchImage(ctx, imageID)
}
