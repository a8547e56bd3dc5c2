package rediscache

import (
	"context"

	"github.com/itsatony/occupeye-cache/internal/config"
	"github.com/itsatony/occupeye-cache/internal/database"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/redis/go-redis/v9"
)

type SensorRepo struct {
	RedisBaseRepo
}

func NewSensorRepository(db database.DB, ttl config.CacheConfig) *SensorRepo {
	return &SensorRepo{RedisBaseRepo: RedisBaseRepo{db: db, ttl: ttl}}
}

func (r *SensorRepo) ReplaceSurveySensorStates(ctx context.Context, surveyID string, states []models.SensorState) error {
	listKey := SurveySensorsKey(surveyID)
	return r.execTx(ctx, "failed to write sensor states", func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, listKey)
		for _, s := range states {
			hw := formatInt(s.HardwareID)

			dataKey := SensorDataKey(surveyID, hw)
			pipe.HSet(ctx, dataKey, map[string]interface{}{
				"hardware_id": hw,
				"sensor_id":   formatInt(s.SensorID),
			})
			pipe.Expire(ctx, dataKey, r.ttl.SurveyTTL)

			statusKey := SensorStatusKey(surveyID, hw)
			pipe.HSet(ctx, statusKey, map[string]interface{}{
				"id":                     hw,
				"last_trigger_type":      s.LastTriggerType,
				"last_trigger_timestamp": s.LastTriggerTimestamp,
			})
			pipe.Expire(ctx, statusKey, r.ttl.SensorStatusTTL)

			pipe.RPush(ctx, listKey, hw)
		}
		pipe.Expire(ctx, listKey, r.ttl.SurveyTTL)
		return nil
	})
}

// ReplaceMapSensors stores positions with the survey TTL while the
// membership list itself uses the short status TTL, so membership is
// re-fetched far more often than the positions it points at.
func (r *SensorRepo) ReplaceMapSensors(ctx context.Context, surveyID, mapID string, positions []models.SensorPosition) error {
	listKey := MapSensorsKey(surveyID, mapID)
	return r.execTx(ctx, "failed to write map sensors", func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, listKey)
		for _, p := range positions {
			hw := formatInt(p.HardwareID)
			pipe.RPush(ctx, listKey, hw)

			key := SensorPropertiesKey(surveyID, mapID, hw)
			pipe.HSet(ctx, key, map[string]interface{}{
				"id":    hw,
				"x_pos": formatInt(p.X),
				"y_pos": formatInt(p.Y),
			})
			pipe.Expire(ctx, key, r.ttl.SurveyTTL)
		}
		pipe.Expire(ctx, listKey, r.ttl.SensorStatusTTL)
		return nil
	})
}

func (r *SensorRepo) CountMapSensors(ctx context.Context, surveyID, mapID string) (int64, error) {
	return r.listLen(ctx, MapSensorsKey(surveyID, mapID))
}

func (r *SensorRepo) ListMapSensorIDs(ctx context.Context, surveyID, mapID string) ([]string, error) {
	return r.listAll(ctx, MapSensorsKey(surveyID, mapID))
}

func (r *SensorRepo) GetSensorPositions(ctx context.Context, surveyID, mapID string, hardwareIDs []string) ([]*models.SensorPosition, error) {
	if len(hardwareIDs) == 0 {
		return nil, nil
	}
	cmds, err := r.pipelined(ctx, "failed to read sensor positions", func(pipe redis.Pipeliner) error {
		for _, hw := range hardwareIDs {
			pipe.HGetAll(ctx, SensorPropertiesKey(surveyID, mapID, hw))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	positions := make([]*models.SensorPosition, len(cmds))
	for i, cmd := range cmds {
		fields := cmd.(*redis.MapStringStringCmd).Val()
		if len(fields) == 0 {
			continue
		}
		p, err := decodePosition(fields)
		if err != nil {
			return nil, errors.NewCacheError("corrupt sensor position record", err)
		}
		positions[i] = p
	}
	return positions, nil
}

func (r *SensorRepo) SensorStateExists(ctx context.Context, surveyID, hardwareID string) (bool, error) {
	n, err := r.client().Exists(ctx, SensorStatusKey(surveyID, hardwareID)).Result()
	if err != nil {
		return false, errors.NewCacheError("failed to check sensor status", err)
	}
	return n > 0, nil
}

// GetSensorStates reads status and static data records together. The
// static sensor id is merged when present; a missing status yields nil.
func (r *SensorRepo) GetSensorStates(ctx context.Context, surveyID string, hardwareIDs []string) ([]*models.SensorState, error) {
	if len(hardwareIDs) == 0 {
		return nil, nil
	}
	cmds, err := r.pipelined(ctx, "failed to read sensor states", func(pipe redis.Pipeliner) error {
		for _, hw := range hardwareIDs {
			pipe.HGetAll(ctx, SensorStatusKey(surveyID, hw))
			pipe.HGetAll(ctx, SensorDataKey(surveyID, hw))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	states := make([]*models.SensorState, len(hardwareIDs))
	for i := range hardwareIDs {
		status := cmds[2*i].(*redis.MapStringStringCmd).Val()
		if len(status) == 0 {
			continue
		}
		data := cmds[2*i+1].(*redis.MapStringStringCmd).Val()
		s, err := decodeState(status, data)
		if err != nil {
			return nil, errors.NewCacheError("corrupt sensor status record", err)
		}
		states[i] = s
	}
	return states, nil
}

func decodePosition(fields map[string]string) (*models.SensorPosition, error) {
	id, err := parseInt("id", fields["id"])
	if err != nil {
		return nil, err
	}
	x, err := parseOptionalInt("x_pos", fields["x_pos"])
	if err != nil {
		return nil, err
	}
	y, err := parseOptionalInt("y_pos", fields["y_pos"])
	if err != nil {
		return nil, err
	}
	return &models.SensorPosition{HardwareID: id, X: x, Y: y}, nil
}

func decodeState(status, data map[string]string) (*models.SensorState, error) {
	id, err := parseInt("id", status["id"])
	if err != nil {
		return nil, err
	}
	sensorID, err := parseOptionalInt("sensor_id", data["sensor_id"])
	if err != nil {
		return nil, err
	}
	return &models.SensorState{
		HardwareID:           id,
		SensorID:             sensorID,
		LastTriggerType:      status["last_trigger_type"],
		LastTriggerTimestamp: status["last_trigger_timestamp"],
	}, nil
}
