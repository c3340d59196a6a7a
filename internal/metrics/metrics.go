package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics groups the collectors of the API server on one registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CountCache      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CountCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderly_update_count_cache_total",
				Help: "Update count lookups by cache result",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		m.RequestsTotal, m.RequestDuration, m.CountCache,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Sync holds the optimistic engine's collectors. The engine runs in
// short-lived client processes, so they live on their own registry and are
// pushed to a Pushgateway rather than scraped.
type Sync struct {
	registry *prometheus.Registry

	Mutations       *prometheus.CounterVec
	MutationLatency *prometheus.HistogramVec
}

func NewSync() *Sync {
	s := &Sync{
		registry: prometheus.NewRegistry(),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orderly_sync_mutations_total",
				Help: "Optimistic board mutations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		MutationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orderly_sync_mutation_duration_seconds",
				Help:    "Time from local apply to store confirmation or rollback",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
	s.registry.MustRegister(s.Mutations, s.MutationLatency)
	return s
}

func (s *Sync) Registry() *prometheus.Registry { return s.registry }

// Push replaces the job's metric group on the Pushgateway at url.
func (s *Sync) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(s.registry).PushContext(ctx)
}
