package resources

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/itsatony/occupeye-cache/api/middleware"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/models"
)

// WorkspaceHandlers encapsulates the survey, sensor and image handlers
type WorkspaceHandlers struct {
	service WorkspaceService
	decoder *schema.Decoder
}

type surveysResponse struct {
	Surveys []models.Survey `json:"surveys"`
}

type sensorsQuery struct {
	SurveyID     string `schema:"survey_id,required"`
	ReturnStates bool   `schema:"return_states"`
}

type imageQuery struct {
	ImageFormat string `schema:"image_format"`
}

// @Summary List surveys
// @Description List every survey of the deployment with its maps, ascending by id
// @Tags workspaces
// @Produce json
// @Success 200 {object} surveysResponse
// @Failure 502 {object} errors.APIError
// @Router /workspaces/surveys [get]
func (h *WorkspaceHandlers) ListSurveys(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFrom(r.Context())

	surveys, err := h.service.GetSurveys(r.Context())
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to list surveys", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, surveysResponse{Surveys: surveys})
}

// @Summary Get survey sensors
// @Description Get every map of a survey with sensor positions and, optionally, live states
// @Tags workspaces
// @Produce json
// @Param survey_id query string true "Survey ID"
// @Param return_states query bool false "Include last trigger state"
// @Success 200 {object} models.SurveySensors
// @Failure 400 {object} errors.APIError
// @Router /workspaces/sensors [get]
func (h *WorkspaceHandlers) GetSurveySensors(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestIDFrom(r.Context())

	var q sensorsQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewBadRequestError("invalid query parameters", err).WithRequestID(requestID))
		return
	}

	result, err := h.service.GetSurveySensors(r.Context(), q.SurveyID, q.ReturnStates)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get survey sensors", requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// @Summary Get map image
// @Description Get a map image, as base64 JSON (default) or as the raw image
// @Tags workspaces
// @Produce json,image/png,image/jpeg
// @Param image_id path string true "Image ID"
// @Param image_format query string false "base64 or raw"
// @Success 200 {object} models.Image
// @Failure 400 {object} errors.APIError
// @Router /workspaces/images/{image_id} [get]
func (h *WorkspaceHandlers) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID := mux.Vars(r)["image_id"]
	requestID := middleware.RequestIDFrom(r.Context())

	var q imageQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewBadRequestError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	if q.ImageFormat == "" {
		q.ImageFormat = "base64"
	}
	if q.ImageFormat != "base64" && q.ImageFormat != "raw" {
		respondWithError(w, errors.NewBadRequestError("image_format must be base64 or raw", nil).WithRequestID(requestID))
		return
	}

	image, err := h.service.GetImage(r.Context(), imageID)
	if err != nil {
		respondWithError(w, asAPIError(err, "failed to get image", requestID))
		return
	}

	if q.ImageFormat == "base64" {
		respondWithJSON(w, http.StatusOK, image)
		return
	}

	raw, err := base64.StdEncoding.DecodeString(image.Data)
	if err != nil {
		respondWithError(w, errors.NewCacheError("cached image is not valid base64", err).WithRequestID(requestID))
		return
	}
	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}
