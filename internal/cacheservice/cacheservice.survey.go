package cacheservice

import (
	"context"
	"strconv"

	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/itsatony/occupeye-cache/internal/notify"
	"github.com/itsatony/occupeye-cache/internal/upstream"
	nuts "github.com/vaudience/go-nuts"
)

// RefreshSurveys rebuilds the survey list and every survey's map list.
// All upstream data is fetched before the first write, so a failed fetch
// leaves the previous cache contents untouched.
func (s *CacheService) RefreshSurveys(ctx context.Context) error {
	remote, err := s.upstream.ListSurveys(ctx)
	if err != nil {
		return err
	}

	surveys := make([]models.Survey, 0, len(remote))
	maps := make([][]models.Map, 0, len(remote))
	for _, r := range remote {
		m, err := s.fetchMaps(ctx, strconv.Itoa(r.SurveyID))
		if err != nil {
			return err
		}
		surveys = append(surveys, toSurvey(r))
		maps = append(maps, m)
	}

	for i, survey := range surveys {
		id := strconv.Itoa(survey.ID)
		if err := s.Surveys.ReplaceSurveyMaps(ctx, id, maps[i]); err != nil {
			return err
		}
		s.notifier.Emit(notify.MapsRefreshed, id)
	}
	if err := s.Surveys.ReplaceSurveys(ctx, surveys); err != nil {
		return err
	}

	nuts.L.Infof("[CacheService] Refreshed %d surveys", len(surveys))
	s.notifier.Emit(notify.SurveysRefreshed, "")
	return nil
}

// RefreshMapsForSurvey rebuilds the map list of a single survey.
func (s *CacheService) RefreshMapsForSurvey(ctx context.Context, surveyID string) error {
	maps, err := s.fetchMaps(ctx, surveyID)
	if err != nil {
		return err
	}
	if err := s.Surveys.ReplaceSurveyMaps(ctx, surveyID, maps); err != nil {
		return err
	}
	nuts.L.Infof("[CacheService] Refreshed %d maps for survey %s", len(maps), surveyID)
	s.notifier.Emit(notify.MapsRefreshed, surveyID)
	return nil
}

func (s *CacheService) fetchMaps(ctx context.Context, surveyID string) ([]models.Map, error) {
	remote, err := s.upstream.ListSurveyMaps(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	maps := make([]models.Map, 0, len(remote))
	for _, r := range remote {
		maps = append(maps, models.Map{ID: r.MapID, Name: r.MapName, ImageID: r.ImageID})
	}
	return maps, nil
}

// GetSurveys returns every cached survey with its maps, ascending by id.
func (s *CacheService) GetSurveys(ctx context.Context) ([]models.Survey, error) {
	if _, err := s.ensure(ctx, "surveys", nonEmpty(s.Surveys.CountSurveys), s.RefreshSurveys); err != nil {
		return nil, err
	}

	ids, err := s.Surveys.ListSurveyIDs(ctx)
	if err != nil {
		return nil, err
	}

	surveys := make([]models.Survey, 0, len(ids))
	for _, id := range ids {
		survey, err := s.Surveys.GetSurvey(ctx, id)
		if err != nil {
			return nil, err
		}
		if survey == nil {
			nuts.L.Warnf("[CacheService] Survey %s listed but not cached, skipping", id)
			continue
		}

		mapIDs, err := s.Surveys.ListMapIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		maps, err := s.Surveys.GetMaps(ctx, id, mapIDs)
		if err != nil {
			return nil, err
		}
		survey.Maps = make([]models.Map, 0, len(maps))
		for _, m := range maps {
			if m != nil {
				survey.Maps = append(survey.Maps, *m)
			}
		}
		surveys = append(surveys, *survey)
	}
	return surveys, nil
}

func toSurvey(r upstream.Survey) models.Survey {
	return models.Survey{
		ID:        r.SurveyID,
		Name:      r.Name,
		Active:    r.Active,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}
