package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/itsatony/occupeye-cache/internal/config"
	"github.com/itsatony/occupeye-cache/internal/database"
	"github.com/itsatony/occupeye-cache/internal/models"
	"github.com/itsatony/occupeye-cache/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var (
	_ repository.SurveyRepository = (*SurveyRepo)(nil)
	_ repository.SensorRepository = (*SensorRepo)(nil)
	_ repository.ImageRepository  = (*ImageRepo)(nil)
	_ repository.TokenRepository  = (*TokenRepo)(nil)
)

var testTTL = config.CacheConfig{
	SurveyTTL:       24 * time.Hour,
	ImageTTL:        48 * time.Hour,
	SensorStatusTTL: time.Minute,
}

func newDB(t *testing.T) (database.DB, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return database.NewFromClient(client), s
}

func TestSurveyRepo_ReplaceSurveys_StoresAscending(t *testing.T) {
	db, s := newDB(t)
	r := NewSurveyRepository(db, testTTL)
	ctx := context.Background()

	// stale entry that must disappear
	_, err := s.Lpush(SurveysKey, "99")
	require.NoError(t, err)

	err = r.ReplaceSurveys(ctx, []models.Survey{
		{ID: 42, Name: "Main Library", Active: true, StartTime: "2018-01-01", EndTime: "2030-01-01"},
		{ID: 7, Name: "Science Library", Active: false},
	})
	require.NoError(t, err)

	ids, err := r.ListSurveyIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"7", "42"}, ids)

	n, err := r.CountSurveys(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	require.Equal(t, "true", s.HGet(SurveyKey("42"), "active"))
	require.Equal(t, 24*time.Hour, s.TTL(SurveyKey("42")))
	require.Equal(t, 24*time.Hour, s.TTL(SurveysKey))

	survey, err := r.GetSurvey(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, &models.Survey{ID: 42, Name: "Main Library", Active: true, StartTime: "2018-01-01", EndTime: "2030-01-01"}, survey)
}

func TestSurveyRepo_GetSurvey_LegacyBoolAndMissing(t *testing.T) {
	db, s := newDB(t)
	r := NewSurveyRepository(db, testTTL)
	ctx := context.Background()

	s.HSet(SurveyKey("3"), "id", "3", "name", "Old", "active", "True")
	survey, err := r.GetSurvey(ctx, "3")
	require.NoError(t, err)
	require.True(t, survey.Active)

	missing, err := r.GetSurvey(ctx, "4")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestSurveyRepo_ReplaceSurveyMaps(t *testing.T) {
	db, s := newDB(t)
	r := NewSurveyRepository(db, testTTL)
	ctx := context.Background()

	require.NoError(t, r.ReplaceSurveyMaps(ctx, "42", []models.Map{
		{ID: 11, Name: "Ground", ImageID: 501},
		{ID: 10, Name: "First", ImageID: 502},
	}))
	require.NoError(t, r.ReplaceSurveyMaps(ctx, "42", []models.Map{
		{ID: 11, Name: "Ground", ImageID: 501},
		{ID: 10, Name: "First", ImageID: 502},
	}))

	ids, err := r.ListMapIDs(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, []string{"11", "10"}, ids)
	require.Equal(t, 24*time.Hour, s.TTL(SurveyMapsKey("42")))

	maps, err := r.GetMaps(ctx, "42", []string{"11", "12", "10"})
	require.NoError(t, err)
	require.Len(t, maps, 3)
	require.Equal(t, &models.Map{ID: 11, Name: "Ground", ImageID: 501}, maps[0])
	require.Nil(t, maps[1])
	require.Equal(t, 502, maps[2].ImageID)

	n, err := r.CountMaps(ctx, "43")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSensorRepo_StatesExpireBeforeData(t *testing.T) {
	db, s := newDB(t)
	r := NewSensorRepository(db, testTTL)
	ctx := context.Background()

	require.NoError(t, r.ReplaceSurveySensorStates(ctx, "42", []models.SensorState{
		{HardwareID: 1001, SensorID: 5, LastTriggerType: "Occupied", LastTriggerTimestamp: "2024-01-01T10:00:00"},
		{HardwareID: 1002, SensorID: 6, LastTriggerType: "Absent", LastTriggerTimestamp: "2024-01-01T10:01:00"},
	}))

	statusTTL := s.TTL(SensorStatusKey("42", "1001"))
	dataTTL := s.TTL(SensorDataKey("42", "1001"))
	require.Equal(t, time.Minute, statusTTL)
	require.Equal(t, 24*time.Hour, dataTTL)
	require.Less(t, statusTTL, dataTTL)

	list, err := s.List(SurveySensorsKey("42"))
	require.NoError(t, err)
	require.Equal(t, []string{"1001", "1002"}, list)

	ok, err := r.SensorStateExists(ctx, "42", "1001")
	require.NoError(t, err)
	require.True(t, ok)

	states, err := r.GetSensorStates(ctx, "42", []string{"1002", "1003"})
	require.NoError(t, err)
	require.Equal(t, &models.SensorState{HardwareID: 1002, SensorID: 6, LastTriggerType: "Absent", LastTriggerTimestamp: "2024-01-01T10:01:00"}, states[0])
	require.Nil(t, states[1])

	s.FastForward(61 * time.Second)
	ok, err = r.SensorStateExists(ctx, "42", "1001")
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, s.Exists(SensorDataKey("42", "1001")))
}

func TestSensorRepo_MapSensorsListUsesShortTTL(t *testing.T) {
	db, s := newDB(t)
	r := NewSensorRepository(db, testTTL)
	ctx := context.Background()

	require.NoError(t, r.ReplaceMapSensors(ctx, "42", "11", []models.SensorPosition{
		{HardwareID: 1002, X: 10, Y: 20},
		{HardwareID: 1001, X: 30, Y: 40},
	}))

	require.Equal(t, time.Minute, s.TTL(MapSensorsKey("42", "11")))
	require.Equal(t, 24*time.Hour, s.TTL(SensorPropertiesKey("42", "11", "1001")))

	ids, err := r.ListMapSensorIDs(ctx, "42", "11")
	require.NoError(t, err)
	require.Equal(t, []string{"1002", "1001"}, ids)

	n, err := r.CountMapSensors(ctx, "42", "11")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	positions, err := r.GetSensorPositions(ctx, "42", "11", ids)
	require.NoError(t, err)
	require.Equal(t, &models.SensorPosition{HardwareID: 1002, X: 10, Y: 20}, positions[0])
	require.Equal(t, &models.SensorPosition{HardwareID: 1001, X: 30, Y: 40}, positions[1])

	s.FastForward(2 * time.Minute)
	n, err = r.CountMapSensors(ctx, "42", "11")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestImageRepo_CoExpiringPair(t *testing.T) {
	db, s := newDB(t)
	r := NewImageRepository(db, testTTL)
	ctx := context.Background()

	require.NoError(t, r.SaveImage(ctx, &models.Image{ID: "7", Data: "aGVsbG8=", ContentType: "image/png"}))
	require.Equal(t, 48*time.Hour, s.TTL(ImageDataKey("7")))
	require.Equal(t, 48*time.Hour, s.TTL(ImageContentTypeKey("7")))

	img, err := r.GetImage(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, &models.Image{ID: "7", Data: "aGVsbG8=", ContentType: "image/png"}, img)

	// one half alone is a miss
	s.Del(ImageContentTypeKey("7"))
	img, err = r.GetImage(ctx, "7")
	require.NoError(t, err)
	require.Nil(t, img)
}

func TestTokenRepo_RoundTrip(t *testing.T) {
	db, s := newDB(t)
	r := NewTokenRepository(db)
	ctx := context.Background()

	cred, err := r.LoadCredential(ctx)
	require.NoError(t, err)
	require.Nil(t, cred)

	expiry := time.Unix(1_700_000_000, 0)
	require.NoError(t, r.SaveCredential(ctx, &models.Credential{Token: "tok", Expiry: expiry}))

	got, _ := s.Get(AccessTokenExpiryKey)
	require.Equal(t, "1700000000", got)

	cred, err = r.LoadCredential(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok", cred.Token)
	require.True(t, cred.Expiry.Equal(expiry))

	require.NoError(t, s.Set(AccessTokenExpiryKey, "soon"))
	cred, err = r.LoadCredential(ctx)
	require.NoError(t, err)
	require.Nil(t, cred)
}

func TestCodec_ParseBool(t *testing.T) {
	for _, v := range []string{"true", "True", "TRUE", "t", "1", "yes"} {
		require.True(t, parseBool(v), v)
	}
	for _, v := range []string{"false", "False", "0", "", "no"} {
		require.False(t, parseBool(v), v)
	}
	_, err := parseInt("id", "abc")
	require.Error(t, err)
}
