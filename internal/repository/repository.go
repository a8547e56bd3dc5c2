// FilePath: internal/repository/repository.go

// Package repository defines the cache stores behind the cache service.
// Ids crossing this layer are the decimal text used in cache keys. Callers
// validate user-supplied ids before they reach a repository.
package repository

import (
	"context"

	"github.com/itsatony/occupeye-cache/internal/models"
)

// TokenRepository persists the shared upstream credential
type TokenRepository interface {
	// LoadCredential returns nil and no error when nothing is cached.
	LoadCredential(ctx context.Context) (*models.Credential, error)
	SaveCredential(ctx context.Context, cred *models.Credential) error
}

// SurveyRepository defines the cache operations for surveys and their maps
type SurveyRepository interface {
	// ReplaceSurveys drops the survey id list and rewrites every survey in
	// one atomic batch. Surveys are given in upstream (descending) order and
	// stored ascending.
	ReplaceSurveys(ctx context.Context, surveys []models.Survey) error
	// ReplaceSurveyMaps rewrites the ordered map list of one survey atomically.
	ReplaceSurveyMaps(ctx context.Context, surveyID string, maps []models.Map) error
	CountSurveys(ctx context.Context) (int64, error)
	ListSurveyIDs(ctx context.Context) ([]string, error)
	// GetSurvey returns nil when the survey record has expired. Maps are not filled.
	GetSurvey(ctx context.Context, surveyID string) (*models.Survey, error)
	CountMaps(ctx context.Context, surveyID string) (int64, error)
	ListMapIDs(ctx context.Context, surveyID string) ([]string, error)
	// GetMaps reads map records in one round trip; missing records are nil.
	GetMaps(ctx context.Context, surveyID string, mapIDs []string) ([]*models.Map, error)
}

// SensorRepository defines the cache operations for sensor positions and states
type SensorRepository interface {
	// ReplaceSurveySensorStates rewrites the survey sensor list, the static
	// data records and the short-lived status records in one batch.
	ReplaceSurveySensorStates(ctx context.Context, surveyID string, states []models.SensorState) error
	// ReplaceMapSensors rewrites a map's sensor list and position records in one batch.
	ReplaceMapSensors(ctx context.Context, surveyID, mapID string, positions []models.SensorPosition) error
	CountMapSensors(ctx context.Context, surveyID, mapID string) (int64, error)
	ListMapSensorIDs(ctx context.Context, surveyID, mapID string) ([]string, error)
	// GetSensorPositions reads position records in one round trip; missing records are nil.
	GetSensorPositions(ctx context.Context, surveyID, mapID string, hardwareIDs []string) ([]*models.SensorPosition, error)
	SensorStateExists(ctx context.Context, surveyID, hardwareID string) (bool, error)
	// GetSensorStates reads status records in one round trip; sensors whose
	// status has expired are nil.
	GetSensorStates(ctx context.Context, surveyID string, hardwareIDs []string) ([]*models.SensorState, error)
}

// ImageRepository defines the cache operations for map images
type ImageRepository interface {
	// SaveImage writes payload and content type with one shared expiry.
	SaveImage(ctx context.Context, image *models.Image) error
	// GetImage returns nil unless both payload and content type are present.
	GetImage(ctx context.Context, imageID string) (*models.Image, error)
}
