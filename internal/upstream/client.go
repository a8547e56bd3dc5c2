package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/itsatony/occupeye-cache/internal/errors"
)

// TokenSource yields the Authorization header value for data requests.
type TokenSource interface {
	GetBearerToken(ctx context.Context) (string, error)
}

// Client fetches surveys, maps, sensors and images for one deployment.
type Client struct {
	transport  *Transport
	deployment string
	tokens     TokenSource
}

func NewClient(t *Transport, deploymentName string, tokens TokenSource) *Client {
	return &Client{transport: t, deployment: deploymentName, tokens: tokens}
}

// ListSurveys returns every survey of the deployment, newest first.
func (c *Client) ListSurveys(ctx context.Context) ([]Survey, error) {
	var out []Survey
	q := url.Values{"deployment": {c.deployment}}
	if err := c.getJSON(ctx, "surveys", "/api/Surveys/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSurveyMaps returns the maps of one survey in upstream order.
func (c *Client) ListSurveyMaps(ctx context.Context, surveyID string) ([]Map, error) {
	var out []Map
	q := url.Values{"deployment": {c.deployment}, "surveyid": {surveyID}}
	if err := c.getJSON(ctx, "maps", "/api/Maps/", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSurveySensorsLatest returns the latest state of every sensor in a survey.
func (c *Client) ListSurveySensorsLatest(ctx context.Context, surveyID string) ([]SensorLatest, error) {
	var out []SensorLatest
	q := url.Values{"deployment": {c.deployment}}
	path := "/api/SurveySensorsLatest/" + url.PathEscape(surveyID)
	if err := c.getJSON(ctx, "survey_sensors_latest", path, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMapLayout returns sensor placements for a map with a top-left origin.
func (c *Client) GetMapLayout(ctx context.Context, mapID string) (*MapLayout, error) {
	var out MapLayout
	q := url.Values{"deployment": {c.deployment}, "origin": {"tl"}}
	path := "/api/Maps/" + url.PathEscape(mapID)
	if err := c.getJSON(ctx, "map_layout", path, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetImage downloads a map image. Every failure, including a missing
// Content-Type, is reported as a bad request: image ids come from callers.
func (c *Client) GetImage(ctx context.Context, imageID string) ([]byte, string, error) {
	q := url.Values{"deployment": {c.deployment}}
	path := "/api/images/" + url.PathEscape(imageID)
	req, err := c.newRequest(ctx, path, q)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.transport.Do(ctx, "image", req)
	if err != nil {
		return nil, "", errors.NewBadRequestError("failed to fetch image", err)
	}
	if !resp.OK() {
		return nil, "", errors.NewBadRequestError(fmt.Sprintf("image %s not available", imageID), nil).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}
	if resp.ContentType == "" {
		return nil, "", errors.NewBadRequestError("image response has no content type", nil)
	}
	return resp.Body, resp.ContentType, nil
}

func (c *Client) newRequest(ctx context.Context, path string, q url.Values) (*http.Request, error) {
	bearer, err := c.tokens.GetBearerToken(ctx)
	if err != nil {
		return nil, err
	}
	u := c.transport.URL(path)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.NewInternalError("failed to build upstream request", err)
	}
	req.Header.Set("Authorization", bearer)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	req, err := c.newRequest(ctx, path, q)
	if err != nil {
		return err
	}
	resp, err := c.transport.Do(ctx, endpoint, req)
	if err != nil {
		return errors.NewUpstreamError(endpoint+" request failed", err)
	}
	if !resp.OK() {
		return errors.NewUpstreamError(fmt.Sprintf("%s returned status %d", endpoint, resp.StatusCode), nil).
			WithDetails(map[string]any{"body": resp.snippet()})
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return errors.NewUpstreamError(endpoint+" returned an unexpected shape", err)
	}
	return nil
}
