// Package monitoring exposes Prometheus metrics and a background store
// health check.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cardiorisk"

// Assessment outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeDegraded      = "degraded"
	OutcomeInvalid       = "invalid_input"
	OutcomeEstimator     = "estimator_error"
	OutcomeUpstreamError = "upstream_error"
)

// Persistence kinds.
const (
	KindReport  = "report"
	KindInsight = "insight"
)

// Metrics holds the service's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	assessments *prometheus.CounterVec
	narrations  *prometheus.CounterVec
	persistence *prometheus.CounterVec
	aggregation prometheus.Histogram
	storeUp     prometheus.Gauge
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Assessments handled, by outcome.",
		}, []string{"outcome"}),
		narrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrations_total",
			Help:      "Narration calls, by outcome.",
		}, []string{"outcome"}),
		persistence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Swallowed persistence failures, by record kind.",
		}, []string{"kind"}),
		aggregation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent running every estimator for one profile.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		storeUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_up",
			Help:      "1 when the last store ping succeeded.",
		}),
	}
	m.registry.MustRegister(
		m.assessments,
		m.narrations,
		m.persistence,
		m.aggregation,
		m.storeUp,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAssessment(outcome string) {
	if m == nil {
		return
	}
	m.assessments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveNarration(outcome string) {
	if m == nil {
		return
	}
	m.narrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PersistenceFailure(kind string) {
	if m == nil {
		return
	}
	m.persistence.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveAggregation(d time.Duration) {
	if m == nil {
		return
	}
	m.aggregation.Observe(d.Seconds())
}

func (m *Metrics) setStoreUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.storeUp.Set(1)
	} else {
		m.storeUp.Set(0)
	}
}
