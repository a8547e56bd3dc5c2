// Package upstream talks to the occupancy sensor API. Every request passes
// through one rate limiter and one circuit breaker shared by the process.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/itsatony/occupeye-cache/internal/config"
	"github.com/itsatony/occupeye-cache/internal/monitoring"
	gobreaker "github.com/sony/gobreaker/v2"
	nuts "github.com/vaudience/go-nuts"
	"golang.org/x/time/rate"
)

const breakerName = "occupeye-api"

// maxErrorBodySize bounds how much of a failed response is kept for errors.
const maxErrorBodySize = 4 * 1024

// Response is a fully read upstream response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// snippet returns a bounded prefix of the body for error messages.
func (r *Response) snippet() string {
	b := r.Body
	if len(b) > maxErrorBodySize {
		b = b[:maxErrorBodySize]
	}
	return strings.TrimSpace(string(b))
}

// Transport executes requests against the upstream base URL.
type Transport struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Response]
}

// NewTransport builds the shared HTTP machinery from configuration.
func NewTransport(cfg config.UpstreamConfig) *Transport {
	return NewTransportWithClient(cfg, &http.Client{Timeout: cfg.Timeout})
}

// NewTransportWithClient is NewTransport with a caller-provided HTTP client.
func NewTransportWithClient(cfg config.UpstreamConfig, client *http.Client) *Transport {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := cfg.BreakerFailures

	monitoring.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			nuts.L.Warnf("[Upstream] Circuit breaker %s: %s -> %s", name, from, to)
			monitoring.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Transport{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		breaker: cb,
	}
}

// URL joins path onto the base URL.
func (t *Transport) URL(path string) string {
	return t.baseURL + path
}

// Do sends req and reads the whole body. Transport errors and 5xx answers
// count against the circuit breaker; other statuses are returned as-is.
func (t *Transport) Do(ctx context.Context, endpoint string, req *http.Request) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		monitoring.UpstreamRequests.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := t.breaker.Execute(func() (*Response, error) {
		httpResp, err := t.http.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
		}
		out := &Response{
			StatusCode:  httpResp.StatusCode,
			ContentType: httpResp.Header.Get("Content-Type"),
			Body:        body,
		}
		if httpResp.StatusCode >= 500 {
			return out, fmt.Errorf("%s returned %d: %s", endpoint, out.StatusCode, out.snippet())
		}
		return out, nil
	})
	monitoring.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		monitoring.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	case !resp.OK():
		monitoring.UpstreamRequests.WithLabelValues(endpoint, "rejected").Inc()
	default:
		monitoring.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	}
	return resp, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
