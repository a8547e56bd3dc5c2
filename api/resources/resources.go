// FilePath: api/resources/resources.go
package resources

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/schema"
	"github.com/itsatony/occupeye-cache/api/middleware"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// WorkspaceService is the read path the handlers expose.
type WorkspaceService interface {
	GetSurveys(ctx context.Context) ([]models.Survey, error)
	GetSurveySensors(ctx context.Context, surveyID string, includeStates bool) (*models.SurveySensors, error)
	GetImage(ctx context.Context, imageID string) (*models.Image, error)
}

// Resources holds all HTTP resource handlers
type Resources struct {
	Workspaces  *WorkspaceHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc WorkspaceService) *Resources {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Resources{
		Workspaces: &WorkspaceHandlers{service: svc, decoder: decoder},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		nuts.L.Errorf("[API] Failed to encode response: %v", err)
	}
}

// asAPIError keeps typed errors as they are and hides anything else
// behind a generic internal error.
func asAPIError(err error, msg, requestID string) *errors.APIError {
	if apiErr, ok := errors.AsAPIError(err); ok {
		return apiErr.WithRequestID(requestID)
	}
	return errors.NewInternalError(msg, err).WithRequestID(requestID)
}

// NotFound answers unknown routes with a JSON error.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, errors.NewNotFoundError("no route for "+r.URL.Path, nil).
		WithRequestID(middleware.RequestIDFrom(r.Context())))
}
