// Package metrics defines the marketplace's Prometheus collectors and the
// /metrics handler. All recording methods are safe on a nil *Metrics so
// engine packages can run without instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "autosphere"

// AI request outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport_error"
	OutcomeMalformed = "malformed"
	OutcomeRejected  = "rejected"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	aiRequests       *prometheus.CounterVec
	aiDuration       *prometheus.HistogramVec
	sessionsActive   prometheus.Gauge
	staleDiscarded   *prometheus.CounterVec
	comparisons      prometheus.Counter
	breakerState     *prometheus.GaugeVec
	restrictionSizes prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Advisory service calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		aiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Advisory service call latency by operation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Browsing sessions currently held in memory.",
		}),
		staleDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_discarded_total",
			Help:      "Advisory responses dropped because a newer request superseded them.",
		}, []string{"op"}),
		comparisons: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_requested_total",
			Help:      "Side-by-side comparisons requested.",
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, []string{"name"}),
		restrictionSizes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "smart_search_matches",
			Help:      "Vehicle ids returned by successful smart searches.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25},
		}),
	}
	reg.MustRegister(
		m.aiRequests,
		m.aiDuration,
		m.sessionsActive,
		m.staleDiscarded,
		m.comparisons,
		m.breakerState,
		m.restrictionSizes,
	)
	return m
}

// Handler serves the collectors registered with g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// AIRequest records one advisory call.
func (m *Metrics) AIRequest(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(op, outcome).Inc()
	m.aiDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SearchMatches records how many ids a smart search returned.
func (m *Metrics) SearchMatches(n int) {
	if m == nil {
		return
	}
	m.restrictionSizes.Observe(float64(n))
}

// SetSessions sets the active session gauge.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

// StaleDiscarded counts a superseded advisory response.
func (m *Metrics) StaleDiscarded(op string) {
	if m == nil {
		return
	}
	m.staleDiscarded.WithLabelValues(op).Inc()
}

// ComparisonRequested counts a comparison request.
func (m *Metrics) ComparisonRequested() {
	if m == nil {
		return
	}
	m.comparisons.Inc()
}

// BreakerState records the numeric state of the named breaker.
func (m *Metrics) BreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(state))
}
