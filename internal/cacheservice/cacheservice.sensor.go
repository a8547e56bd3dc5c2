package cacheservice

import (
	"context"
	"fmt"

	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/itsatony/occupeye-cache/internal/notify"
	nuts "github.com/vaudience/go-nuts"
)

// RefreshSensorStates rewrites the live state of every sensor in a survey.
func (s *CacheService) RefreshSensorStates(ctx context.Context, surveyID string) error {
	remote, err := s.upstream.ListSurveySensorsLatest(ctx, surveyID)
	if err != nil {
		return err
	}
	states := make([]models.SensorState, 0, len(remote))
	for _, r := range remote {
		states = append(states, models.SensorState{
			HardwareID:           r.HardwareID,
			SensorID:             r.SensorID,
			LastTriggerType:      r.LastTriggerType,
			LastTriggerTimestamp: r.LastTriggerTime,
		})
	}
	if err := s.Sensors.ReplaceSurveySensorStates(ctx, surveyID, states); err != nil {
		return err
	}
	nuts.L.Infof("[CacheService] Refreshed %d sensor states for survey %s", len(states), surveyID)
	s.notifier.Emit(notify.SensorStatesRefreshed, surveyID)
	return nil
}

// RefreshMapSensorPositions rewrites the sensor list and positions of one map.
func (s *CacheService) RefreshMapSensorPositions(ctx context.Context, surveyID, mapID string) error {
	layout, err := s.upstream.GetMapLayout(ctx, mapID)
	if err != nil {
		return err
	}
	positions := make([]models.SensorPosition, 0, len(layout.MapItemViewModels))
	for _, item := range layout.MapItemViewModels {
		positions = append(positions, models.SensorPosition{HardwareID: item.HardwareID, X: item.X, Y: item.Y})
	}
	if err := s.Sensors.ReplaceMapSensors(ctx, surveyID, mapID, positions); err != nil {
		return err
	}
	nuts.L.Infof("[CacheService] Refreshed %d sensor positions for map %s", len(positions), mapID)
	s.notifier.Emit(notify.MapSensorsRefreshed, mapID)
	return nil
}

// GetSurveySensors returns every map of a survey with its sensors. With
// includeStates the live trigger state is merged in; sensors whose state is
// not cached are returned with their position only.
func (s *CacheService) GetSurveySensors(ctx context.Context, surveyID string, includeStates bool) (*models.SurveySensors, error) {
	if !isDigits(surveyID) {
		return nil, errors.NewBadRequestError("survey id must be numeric", nil).
			WithDetails(map[string]string{"survey_id": surveyID})
	}

	hasMaps := nonEmpty(func(ctx context.Context) (int64, error) {
		return s.Surveys.CountMaps(ctx, surveyID)
	})
	if _, err := s.ensure(ctx, "maps", hasMaps, s.RefreshSurveys); err != nil {
		return nil, err
	}

	mapIDs, err := s.Surveys.ListMapIDs(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if len(mapIDs) == 0 {
		return nil, errors.NewBadRequestError(fmt.Sprintf("survey %s has no maps", surveyID), nil)
	}
	maps, err := s.Surveys.GetMaps(ctx, surveyID, mapIDs)
	if err != nil {
		return nil, err
	}

	req := &sensorRequest{svc: s, surveyID: surveyID, includeStates: includeStates}
	result := &models.SurveySensors{Maps: make([]models.MapSensors, 0, len(maps))}
	for i, m := range maps {
		if m == nil {
			nuts.L.Warnf("[CacheService] Map %s of survey %s listed but not cached, skipping", mapIDs[i], surveyID)
			continue
		}
		sensors, err := req.mapSensors(ctx, mapIDs[i])
		if err != nil {
			return nil, err
		}
		result.Maps = append(result.Maps, models.MapSensors{Map: *m, Sensors: sensors})
	}
	return result, nil
}

// sensorRequest carries per-request state across the maps of one survey.
type sensorRequest struct {
	svc             *CacheService
	surveyID        string
	includeStates   bool
	statesRefreshed bool
}

func (r *sensorRequest) mapSensors(ctx context.Context, mapID string) (*models.SensorSet, error) {
	s := r.svc
	hasSensors := nonEmpty(func(ctx context.Context) (int64, error) {
		return s.Sensors.CountMapSensors(ctx, r.surveyID, mapID)
	})
	populate := func(ctx context.Context) error {
		return s.RefreshMapSensorPositions(ctx, r.surveyID, mapID)
	}
	if _, err := s.ensure(ctx, "map_sensors", hasSensors, populate); err != nil {
		return nil, err
	}

	hardwareIDs, err := s.Sensors.ListMapSensorIDs(ctx, r.surveyID, mapID)
	if err != nil {
		return nil, err
	}
	positions, err := s.Sensors.GetSensorPositions(ctx, r.surveyID, mapID, hardwareIDs)
	if err != nil {
		return nil, err
	}

	set := models.NewSensorSet()
	for i, p := range positions {
		if p == nil {
			nuts.L.Warnf("[CacheService] Position of sensor %s on map %s expired, skipping", hardwareIDs[i], mapID)
			continue
		}
		set.Add(&models.Sensor{HardwareID: p.HardwareID, XPos: p.X, YPos: p.Y})
	}

	if !r.includeStates || len(hardwareIDs) == 0 {
		return set, nil
	}
	if err := r.ensureStates(ctx, hardwareIDs[0]); err != nil {
		return nil, err
	}

	states, err := s.Sensors.GetSensorStates(ctx, r.surveyID, hardwareIDs)
	if err != nil {
		return nil, err
	}
	for _, st := range states {
		if st == nil {
			continue
		}
		if sensor, ok := set.Get(st.HardwareID); ok {
			sensor.SensorID = st.SensorID
			sensor.LastTriggerType = st.LastTriggerType
			sensor.LastTriggerTimestamp = st.LastTriggerTimestamp
		}
	}
	return set, nil
}

// ensureStates treats the first sensor's status as the freshness marker for
// the whole survey. The survey is refreshed at most once per request.
func (r *sensorRequest) ensureStates(ctx context.Context, sampleID string) error {
	if r.statesRefreshed {
		return nil
	}
	s := r.svc
	present := func(ctx context.Context) (bool, error) {
		return s.Sensors.SensorStateExists(ctx, r.surveyID, sampleID)
	}
	populate := func(ctx context.Context) error {
		return s.RefreshSensorStates(ctx, r.surveyID)
	}
	refreshed, err := s.ensure(ctx, "sensor_states", present, populate)
	if refreshed {
		r.statesRefreshed = true
	}
	return err
}
