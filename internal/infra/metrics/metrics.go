// Package metrics provides Prometheus collectors for the player.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the player's collectors on a private registry.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	BackendRequests  *prometheus.CounterVec
	BackendLatency   *prometheus.HistogramVec
	FailoverAdvances *prometheus.CounterVec
	DomainRefreshes  *prometheus.CounterVec
	TracksEnqueued   *prometheus.CounterVec
	FilterRejections *prometheus.CounterVec
	URLRepairs       prometheus.Counter
	QueueLength      prometheus.Gauge
	PlayedTracks     prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaytune_backend_requests_total",
				Help: "Total number of backend API requests",
			},
			[]string{"family", "endpoint", "status"},
		),
		BackendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relaytune_backend_request_duration_seconds",
				Help:    "Backend API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"family", "endpoint"},
		),
		FailoverAdvances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaytune_failover_advances_total",
				Help: "Total number of mirror advances after a failed request",
			},
			[]string{"family"},
		),
		DomainRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaytune_domain_refreshes_total",
				Help: "Total number of mirror list refreshes from the instance directory",
			},
			[]string{"family", "status"},
		),
		TracksEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaytune_tracks_enqueued_total",
				Help: "Total number of tracks handed to the playback driver",
			},
			[]string{"origin"},
		),
		FilterRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaytune_filter_rejections_total",
				Help: "Total number of related candidates rejected by eligibility filters",
			},
			[]string{"code"},
		),
		URLRepairs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "relaytune_broken_url_repairs_total",
				Help: "Total number of broken audio URLs re-resolved",
			},
		),
		QueueLength: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "relaytune_queue_length",
				Help: "Current number of entries in the play queue",
			},
		),
		PlayedTracks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "relaytune_played_tracks",
				Help: "Number of distinct tracks offered to the playback driver",
			},
		),
	}

	m.registry.MustRegister(
		m.BackendRequests,
		m.BackendLatency,
		m.FailoverAdvances,
		m.DomainRefreshes,
		m.TracksEnqueued,
		m.FilterRejections,
		m.URLRepairs,
		m.QueueLength,
		m.PlayedTracks,
	)
	return m
}

// Handler returns the /metrics handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one backend request.
func (m *Metrics) ObserveRequest(family, endpoint, status string, seconds float64) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(family, endpoint, status).Inc()
	m.BackendLatency.WithLabelValues(family, endpoint).Observe(seconds)
}

// FailoverAdvanced records a mirror advance.
func (m *Metrics) FailoverAdvanced(family string) {
	if m == nil {
		return
	}
	m.FailoverAdvances.WithLabelValues(family).Inc()
}

// DomainsRefreshed records a directory refresh attempt.
func (m *Metrics) DomainsRefreshed(family string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.DomainRefreshes.WithLabelValues(family, status).Inc()
}

// TrackEnqueued records a track handed to the driver.
func (m *Metrics) TrackEnqueued(origin string) {
	if m == nil {
		return
	}
	m.TracksEnqueued.WithLabelValues(origin).Inc()
}

// FilterRejected records a candidate rejection.
func (m *Metrics) FilterRejected(code string) {
	if m == nil {
		return
	}
	m.FilterRejections.WithLabelValues(code).Inc()
}

// URLRepaired records a broken URL repair.
func (m *Metrics) URLRepaired() {
	if m == nil {
		return
	}
	m.URLRepairs.Inc()
}

// SetQueueState updates the queue gauges.
func (m *Metrics) SetQueueState(queueLen, played int) {
	if m == nil {
		return
	}
	m.QueueLength.Set(float64(queueLen))
	m.PlayedTracks.Set(float64(played))
}
