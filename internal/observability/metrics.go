package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "quake_match"

// PushJob is the Pushgateway job name used for every invocation.
const PushJob = "quake_match"

// Metrics holds the Prometheus counters and histograms for one invocation.
// The worker exits after every notification, so metrics live in a private
// registry and are pushed to a Pushgateway instead of being scraped.
type Metrics struct {
	Registry *prometheus.Registry

	Notifications *prometheus.CounterVec   // labels: outcome={success,discarded,validation_error,store_error,match_error,connection_error,duplicate_event}
	MatchResults  *prometheus.CounterVec   // labels: status={matched,no_detection_in_window,not_spatially_close}, action={created,updated,none}
	StageErrors   *prometheus.CounterVec   // labels: stage={normalize,connect,record,match,announce}, kind
	StageDuration *prometheus.HistogramVec // labels: stage

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss,error}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates all metrics registered with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications processed by terminal outcome.",
		}, []string{"outcome"}),
		MatchResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_results_total",
			Help:      "Match attempts by status and upsert action.",
		}, []string{"status", "action"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Stage failures by stage and error kind.",
		}, []string{"stage", "kind"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each processing stage.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	m.Registry.MustRegister(
		m.Notifications,
		m.MatchResults,
		m.StageErrors,
		m.StageDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)

	return m
}

// Push sends the registry to a Pushgateway. A blank url is a no-op.
func (m *Metrics) Push(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, PushJob).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
