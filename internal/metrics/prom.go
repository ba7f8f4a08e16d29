package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes pipeline outcomes as Prometheus metrics on a private
// registry.
type Collector struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	stages   *prometheus.HistogramVec
	http     *prometheus.HistogramVec
}

// NewCollector registers the pipeline collectors plus the Go and process
// collectors under the given namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "media_hooks"
	}
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by source, media kind and error kind.",
		}, []string{"source", "media_kind", "error_kind"}),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),
		http: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
	reg.MustRegister(
		c.runs,
		c.stages,
		c.http,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Observe records one pipeline outcome.
func (c *Collector) Observe(o Outcome) {
	c.runs.WithLabelValues(o.Source, o.MediaKind, o.ErrorKind).Inc()
	if !o.Succeeded() {
		return
	}
	c.stages.WithLabelValues("load").Observe(o.Load.Seconds())
	c.stages.WithLabelValues("describe").Observe(o.Describe.Seconds())
	c.stages.WithLabelValues("hooks").Observe(o.Hooks.Seconds())
	c.stages.WithLabelValues("total").Observe(o.Total.Seconds())
}

// ObserveHTTP records the latency of one HTTP request.
func (c *Collector) ObserveHTTP(route, code string, seconds float64) {
	c.http.WithLabelValues(route, code).Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
