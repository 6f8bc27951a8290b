// Package metrics exposes Prometheus instrumentation for HTTP traffic and
// lead-tracking business events.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ActivitiesTracked   *prometheus.CounterVec
	ScoreComputations   *prometheus.CounterVec
	ScoreComputeSeconds prometheus.Histogram
	FollowupsCreated    *prometheus.CounterVec
	FollowupsCompleted  prometheus.Counter
	OpenHouseLeads      prometheus.Counter

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a Metrics instance with Go runtime and process collectors included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		ActivitiesTracked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_activities_tracked_total",
			Help: "Activities appended to the engagement log",
		}, []string{"type"}),
		ScoreComputations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_score_computations_total",
			Help: "Lead score computations by outcome",
		}, []string{"result"}), // ok, error
		ScoreComputeSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lead_score_compute_duration_seconds",
			Help:    "Time spent gathering inputs and computing a lead score",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		FollowupsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_followups_created_total",
			Help: "Followups scheduled, by reason",
		}, []string{"reason"}),
		FollowupsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "lead_followups_completed_total",
			Help: "Followups marked completed by agents",
		}),
		OpenHouseLeads: factory.NewCounter(prometheus.CounterOpts{
			Name: "open_house_leads_registered_total",
			Help: "Visitors registered at open houses",
		}),

		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		}, []string{"cache"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		}, []string{"cache"}),
	}
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency keyed by the route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordActivity increments the tracked-activity counter for activityType.
func (m *Metrics) RecordActivity(activityType string) {
	if m == nil {
		return
	}
	m.ActivitiesTracked.WithLabelValues(activityType).Inc()
}

// RecordScoreComputation records a computation outcome and its duration.
func (m *Metrics) RecordScoreComputation(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ScoreComputations.WithLabelValues(result).Inc()
	m.ScoreComputeSeconds.Observe(d.Seconds())
}

// RecordFollowupCreated increments the followup counter for reason.
func (m *Metrics) RecordFollowupCreated(reason string) {
	if m == nil {
		return
	}
	m.FollowupsCreated.WithLabelValues(reason).Inc()
}

// RecordFollowupCompleted increments the completed followup counter.
func (m *Metrics) RecordFollowupCompleted() {
	if m == nil {
		return
	}
	m.FollowupsCompleted.Inc()
}

// RecordOpenHouseLead increments the open-house registration counter.
func (m *Metrics) RecordOpenHouseLead() {
	if m == nil {
		return
	}
	m.OpenHouseLeads.Inc()
}

// RecordCache records a cache lookup for the named cache.
func (m *Metrics) RecordCache(cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}
