// Package metrics exposes Prometheus counters for evaluations, projections
// and HTTP traffic on a private registry.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stewardship"

// Registry holds all metrics. It satisfies monitor.Recorder.
type Registry struct {
	registry *prometheus.Registry

	Evaluations       *prometheus.CounterVec
	Projections       prometheus.Counter
	ProjectionHorizon prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
}

// NewRegistry creates a registry with every metric registered. Process and
// Go runtime collectors are included when withRuntime is set.
func NewRegistry(withRuntime bool) *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Threshold evaluations by resulting state",
			},
			[]string{"state"},
		),

		Projections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "projections_total",
				Help:      "Projections computed",
			},
		),

		ProjectionHorizon: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "projection_horizon",
				Help:      "Requested projection horizon in generations",
				Buckets:   []float64{1, 3, 5, 10, 25, 50, 100, 250, 1000},
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern and status code",
			},
			[]string{"route", "status"},
		),
	}

	r.registry.MustRegister(r.Evaluations, r.Projections, r.ProjectionHorizon, r.HTTPRequests)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// RecordEvaluation counts one threshold evaluation.
func (r *Registry) RecordEvaluation(state string) {
	r.Evaluations.WithLabelValues(state).Inc()
}

// RecordProjection counts one projection of the given horizon.
func (r *Registry) RecordProjection(horizon int) {
	r.Projections.Inc()
	r.ProjectionHorizon.Observe(float64(horizon))
}

// RecordRequest counts one served HTTP request.
func (r *Registry) RecordRequest(route string, status int) {
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
