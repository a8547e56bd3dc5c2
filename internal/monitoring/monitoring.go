package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

// Service provides monitoring functionality
type Service struct {
	gatherer prometheus.Gatherer
}

// NewService creates a new monitoring service on the default registry
func NewService() *Service {
	return &Service{gatherer: prometheus.DefaultGatherer}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	RefreshEvents.WithLabelValues(eventName).Inc()
	nuts.L.Debugf("[Monitoring] Event %s recorded at %v with labels: %v", eventName, time.Now(), labels)
}

// RecordLookup counts a cache lookup for entity.
func (s *Service) RecordLookup(entity string, hit bool) {
	RecordLookup(entity, hit)
}

// RecordLookup is the package-level form used by components that hold no Service.
func RecordLookup(entity string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(entity, result).Inc()
}

// Handler exposes the registered metrics
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}
