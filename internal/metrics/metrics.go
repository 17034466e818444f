// Package metrics exposes Prometheus collectors for the API, the model calls
// and the resume worker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	ModelCalls    *prometheus.CounterVec
	ModelDuration *prometheus.HistogramVec
	Generations   *prometheus.CounterVec
	ResumeJobs    *prometheus.CounterVec
}

// NewCollector builds a collector on its own registry, so tests can create as
// many as they like.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ModelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of language model calls",
			},
			[]string{"intent", "outcome"},
		),
		ModelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Language model call duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"intent"},
		),
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_results_total",
				Help:      "Interpreted generation results by intent and kind",
			},
			[]string{"intent", "kind"},
		),
		ResumeJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resume_jobs_total",
				Help:      "Resume analysis jobs by final status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.ModelCalls,
		c.ModelDuration,
		c.Generations,
		c.ResumeJobs,
	)
	return c
}

func (c *Collector) ObserveModelCall(intent string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.ModelCalls.WithLabelValues(intent, outcome).Inc()
	c.ModelDuration.WithLabelValues(intent).Observe(time.Since(started).Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
