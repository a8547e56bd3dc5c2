// Package cacheservice serves survey, sensor and image reads from the cache
// and repopulates it from the upstream API when required keys are missing.
package cacheservice

import (
	"context"

	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/monitoring"
	"github.com/itsatony/occupeye-cache/internal/notify"
	"github.com/itsatony/occupeye-cache/internal/repository"
	"github.com/itsatony/occupeye-cache/internal/upstream"
	nuts "github.com/vaudience/go-nuts"
)

// Upstream is the subset of the occupancy API the populators need.
type Upstream interface {
	ListSurveys(ctx context.Context) ([]upstream.Survey, error)
	ListSurveyMaps(ctx context.Context, surveyID string) ([]upstream.Map, error)
	ListSurveySensorsLatest(ctx context.Context, surveyID string) ([]upstream.SensorLatest, error)
	GetMapLayout(ctx context.Context, mapID string) (*upstream.MapLayout, error)
	GetImage(ctx context.Context, imageID string) ([]byte, string, error)
}

var _ Upstream = (*upstream.Client)(nil)

// CacheService contains the cache repositories and the upstream client
type CacheService struct {
	Surveys  repository.SurveyRepository
	Sensors  repository.SensorRepository
	Images   repository.ImageRepository
	upstream Upstream
	notifier *notify.Notifier
}

// New creates a new CacheService instance. notifier may be nil.
func New(
	surveys repository.SurveyRepository,
	sensors repository.SensorRepository,
	images repository.ImageRepository,
	up Upstream,
	notifier *notify.Notifier,
) *CacheService {
	return &CacheService{
		Surveys:  surveys,
		Sensors:  sensors,
		Images:   images,
		upstream: up,
		notifier: notifier,
	}
}

// Validate checks if all required dependencies are initialized
func (s *CacheService) Validate() error {
	if s.Surveys == nil {
		return ErrMissingRepository("surveys")
	}
	if s.Sensors == nil {
		return ErrMissingRepository("sensors")
	}
	if s.Images == nil {
		return ErrMissingRepository("images")
	}
	if s.upstream == nil {
		return errors.NewInternalError("missing upstream client", nil)
	}
	return nil
}

// ErrMissingRepository reports a repository left nil when the service was built.
func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}

// ensure is the lazy-fill step of every read: check the cache, and on a
// miss run populate once. It reports whether populate ran.
func (s *CacheService) ensure(
	ctx context.Context,
	entity string,
	present func(context.Context) (bool, error),
	populate func(context.Context) error,
) (bool, error) {
	ok, err := present(ctx)
	if err != nil {
		return false, err
	}
	monitoring.RecordLookup(entity, ok)
	if ok {
		return false, nil
	}
	nuts.L.Infof("[CacheService] Cache miss for %s, refreshing", entity)
	if err := populate(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// nonEmpty adapts a length check to ensure.
func nonEmpty(count func(context.Context) (int64, error)) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		n, err := count(ctx)
		return n > 0, err
	}
}

// isDigits reports whether id is a non-empty run of ASCII decimal digits.
// Ids become part of cache keys, so nothing else may pass.
func isDigits(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
