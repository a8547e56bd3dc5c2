package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itsatony/occupeye-cache/internal/config"
	"github.com/itsatony/occupeye-cache/internal/errors"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) GetBearerToken(context.Context) (string, error) {
	return "Bearer " + string(s), nil
}

var _ TokenSource = staticTokens("")

func testConfig(baseURL string) config.UpstreamConfig {
	return config.UpstreamConfig{
		BaseURL:           baseURL,
		DeploymentName:    "campus",
		Username:          "svc",
		Password:          "secret",
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             100,
		BreakerFailures:   3,
		BreakerTimeout:    time.Minute,
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(NewTransport(testConfig(srv.URL)), "campus", staticTokens("abc"))
}

func TestAuthenticator_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "password", r.PostForm.Get("Grant_type"))
		require.Equal(t, "svc", r.PostForm.Get("Username"))
		require.Equal(t, "secret", r.PostForm.Get("Password"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	auth := NewAuthenticator(NewTransport(testConfig(srv.URL)), "svc", "secret")
	issued := time.Unix(1_700_000_000, 500)
	auth.now = func() time.Time { return issued }

	cred, err := auth.Exchange(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", cred.Token)
	require.Equal(t, int64(1_700_003_600), cred.Expiry.Unix())
}

func TestAuthenticator_RejectedIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	auth := NewAuthenticator(NewTransport(testConfig(srv.URL)), "svc", "wrong")
	_, err := auth.Exchange(context.Background())
	require.Error(t, err)
	require.True(t, errors.IsUpstream(err))
}

func TestClient_ListSurveys(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/Surveys/", r.URL.Path)
		require.Equal(t, "campus", r.URL.Query().Get("deployment"))
		require.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"SurveyID":59,"Active":true,"Name":"Library","StartTime":"2019-01-01T00:00:00","EndTime":"2030-01-01T00:00:00"},
			{"SurveyID":12,"Active":false,"Name":"Annex","StartTime":"2017-01-01T00:00:00","EndTime":"2018-01-01T00:00:00"}
		]`))
	})

	surveys, err := c.ListSurveys(context.Background())
	require.NoError(t, err)
	require.Len(t, surveys, 2)
	require.Equal(t, 59, surveys[0].SurveyID)
	require.True(t, surveys[0].Active)
	require.Equal(t, "Annex", surveys[1].Name)
}

func TestClient_ListSurveyMaps(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/Maps/", r.URL.Path)
		require.Equal(t, "59", r.URL.Query().Get("surveyid"))
		_, _ = w.Write([]byte(`[{"MapID":115,"MapName":"Ground","ImageID":7},{"MapID":116,"MapName":"First","ImageID":8}]`))
	})

	maps, err := c.ListSurveyMaps(context.Background(), "59")
	require.NoError(t, err)
	require.Equal(t, []Map{{MapID: 115, MapName: "Ground", ImageID: 7}, {MapID: 116, MapName: "First", ImageID: 8}}, maps)
}

func TestClient_SensorsAndLayout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/SurveySensorsLatest/59":
			_, _ = w.Write([]byte(`[{"HardwareID":1001,"SensorID":4,"LastTriggerType":"Occupied","LastTriggerTime":"2024-05-01T10:00:00"}]`))
		case "/api/Maps/115":
			require.Equal(t, "tl", r.URL.Query().Get("origin"))
			_, _ = w.Write([]byte(`{"MapItemViewModels":[{"HardwareID":1001,"X":10,"Y":20}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	states, err := c.ListSurveySensorsLatest(context.Background(), "59")
	require.NoError(t, err)
	require.Equal(t, "Occupied", states[0].LastTriggerType)

	layout, err := c.GetMapLayout(context.Background(), "115")
	require.NoError(t, err)
	require.Equal(t, []MapItem{{HardwareID: 1001, X: 10, Y: 20}}, layout.MapItemViewModels)
}

func TestClient_ServerErrorIsUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.ListSurveys(context.Background())
	require.Error(t, err)
	require.True(t, errors.IsUpstream(err))
}

func TestClient_MalformedBodyIsUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	})

	_, err := c.ListSurveys(context.Background())
	require.True(t, errors.IsUpstream(err))
}

func TestClient_GetImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/images/7", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})

	data, contentType, err := c.GetImage(context.Background(), "7")
	require.NoError(t, err)
	require.Equal(t, "image/png", contentType)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestClient_GetImageFailuresAreBadRequests(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		_, _, err := c.GetImage(context.Background(), "404")
		require.True(t, errors.IsBadRequest(err))
	})

	t.Run("missing content type", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header()["Content-Type"] = nil
			w.WriteHeader(http.StatusOK)
		})
		_, _, err := c.GetImage(context.Background(), "7")
		require.True(t, errors.IsBadRequest(err))
	})
}

func TestTransport_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := NewTransport(testConfig(srv.URL))
	for i := 0; i < 5; i++ {
		req, err := http.NewRequest(http.MethodGet, tr.URL("/api/Surveys/"), nil)
		require.NoError(t, err)
		_, err = tr.Do(context.Background(), "surveys", req)
		require.Error(t, err)
	}
	require.Equal(t, int32(3), calls.Load())
}
