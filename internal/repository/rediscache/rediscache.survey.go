package rediscache

import (
	"context"

	"github.com/itsatony/occupeye-cache/internal/config"
	"github.com/itsatony/occupeye-cache/internal/database"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/redis/go-redis/v9"
)

type SurveyRepo struct {
	RedisBaseRepo
}

func NewSurveyRepository(db database.DB, ttl config.CacheConfig) *SurveyRepo {
	return &SurveyRepo{RedisBaseRepo: RedisBaseRepo{db: db, ttl: ttl}}
}

func (r *SurveyRepo) ReplaceSurveys(ctx context.Context, surveys []models.Survey) error {
	return r.execTx(ctx, "failed to write surveys", func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, SurveysKey)
		for _, s := range surveys {
			id := formatInt(s.ID)
			key := SurveyKey(id)
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, map[string]interface{}{
				"id":         id,
				"active":     formatBool(s.Active),
				"name":       s.Name,
				"start_time": s.StartTime,
				"end_time":   s.EndTime,
			})
			pipe.Expire(ctx, key, r.ttl.SurveyTTL)
			// Upstream lists surveys newest first; prepending stores them ascending.
			pipe.LPush(ctx, SurveysKey, id)
		}
		pipe.Expire(ctx, SurveysKey, r.ttl.SurveyTTL)
		return nil
	})
}

func (r *SurveyRepo) ReplaceSurveyMaps(ctx context.Context, surveyID string, maps []models.Map) error {
	listKey := SurveyMapsKey(surveyID)
	return r.execTx(ctx, "failed to write survey maps", func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, listKey)
		for _, m := range maps {
			id := formatInt(m.ID)
			key := MapKey(surveyID, id)
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, map[string]interface{}{
				"id":       id,
				"name":     m.Name,
				"image_id": formatInt(m.ImageID),
			})
			pipe.Expire(ctx, key, r.ttl.SurveyTTL)
			pipe.RPush(ctx, listKey, id)
		}
		pipe.Expire(ctx, listKey, r.ttl.SurveyTTL)
		return nil
	})
}

func (r *SurveyRepo) CountSurveys(ctx context.Context) (int64, error) {
	return r.listLen(ctx, SurveysKey)
}

func (r *SurveyRepo) ListSurveyIDs(ctx context.Context) ([]string, error) {
	return r.listAll(ctx, SurveysKey)
}

func (r *SurveyRepo) GetSurvey(ctx context.Context, surveyID string) (*models.Survey, error) {
	fields, err := r.client().HGetAll(ctx, SurveyKey(surveyID)).Result()
	if err != nil {
		return nil, errors.NewCacheError("failed to read survey", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeSurvey(fields)
}

func (r *SurveyRepo) CountMaps(ctx context.Context, surveyID string) (int64, error) {
	return r.listLen(ctx, SurveyMapsKey(surveyID))
}

func (r *SurveyRepo) ListMapIDs(ctx context.Context, surveyID string) ([]string, error) {
	return r.listAll(ctx, SurveyMapsKey(surveyID))
}

func (r *SurveyRepo) GetMaps(ctx context.Context, surveyID string, mapIDs []string) ([]*models.Map, error) {
	if len(mapIDs) == 0 {
		return nil, nil
	}
	cmds, err := r.pipelined(ctx, "failed to read maps", func(pipe redis.Pipeliner) error {
		for _, id := range mapIDs {
			pipe.HGetAll(ctx, MapKey(surveyID, id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	maps := make([]*models.Map, len(cmds))
	for i, cmd := range cmds {
		fields := cmd.(*redis.MapStringStringCmd).Val()
		if len(fields) == 0 {
			continue
		}
		m, err := decodeMap(fields)
		if err != nil {
			return nil, errors.NewCacheError("corrupt map record", err)
		}
		maps[i] = m
	}
	return maps, nil
}

func decodeSurvey(fields map[string]string) (*models.Survey, error) {
	id, err := parseInt("id", fields["id"])
	if err != nil {
		return nil, errors.NewCacheError("corrupt survey record", err)
	}
	return &models.Survey{
		ID:        id,
		Name:      fields["name"],
		Active:    parseBool(fields["active"]),
		StartTime: fields["start_time"],
		EndTime:   fields["end_time"],
	}, nil
}

func decodeMap(fields map[string]string) (*models.Map, error) {
	id, err := parseInt("id", fields["id"])
	if err != nil {
		return nil, err
	}
	imageID, err := parseOptionalInt("image_id", fields["image_id"])
	if err != nil {
		return nil, err
	}
	return &models.Map{ID: id, Name: fields["name"], ImageID: imageID}, nil
}
