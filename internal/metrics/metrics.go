// Package metrics exposes Prometheus counters for the remote calls made by the
// search component and the feed server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tartampluch/go-idlookup/internal/config"
)

// Recorder implements search.Metrics.
type Recorder struct {
	// Format checks by result: valid, invalid, error, stale
	Validations *prometheus.CounterVec

	// Combined searches by result: ok, invalid, error, stale
	Searches *prometheus.CounterVec

	// Holiday retrievals by result: ok, error, stale
	Holidays *prometheus.CounterVec

	// Feed downloads served by route
	FeedRequests *prometheus.CounterVec
}

// New registers all counters on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "format_checks_total",
			Help:      "Remote identifier format checks by result",
		}, []string{config.MetricLabelResult}),

		Searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "searches_total",
			Help:      "Combined validate-and-search calls by result",
		}, []string{config.MetricLabelResult}),

		Holidays: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "holiday_retrievals_total",
			Help:      "Dependent holiday retrievals by result",
		}, []string{config.MetricLabelResult}),

		FeedRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "feed_requests_total",
			Help:      "Feed downloads served by the local server by route",
		}, []string{config.MetricLabelRoute}),
	}
}

func (r *Recorder) ValidationCompleted(result string) {
	if r != nil {
		r.Validations.WithLabelValues(result).Inc()
	}
}

func (r *Recorder) SearchCompleted(result string) {
	if r != nil {
		r.Searches.WithLabelValues(result).Inc()
	}
}

func (r *Recorder) HolidaysCompleted(result string) {
	if r != nil {
		r.Holidays.WithLabelValues(result).Inc()
	}
}

// FeedServed records a download of route.
func (r *Recorder) FeedServed(route string) {
	if r != nil {
		r.FeedRequests.WithLabelValues(route).Inc()
	}
}
