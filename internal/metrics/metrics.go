// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the retrieval pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles all collectors behind one registry so tests can run
// isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	documentsIngested prometheus.Counter
	chunksIndexed     prometheus.Counter
	queriesTotal      *prometheus.CounterVec
	retrievalLatency  prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reglens_http_requests_total",
			Help: "Total HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reglens_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		documentsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reglens_documents_ingested_total",
			Help: "Documents successfully ingested.",
		}),
		chunksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reglens_chunks_indexed_total",
			Help: "Chunks written to the store.",
		}),
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reglens_queries_total",
			Help: "Answered queries by grounding outcome.",
		}, []string{"grounded"}),
		retrievalLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reglens_query_latency_seconds",
			Help:    "End-to-end query latency including synthesis.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.documentsIngested,
		m.chunksIndexed,
		m.queriesTotal,
		m.retrievalLatency,
	)
	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveIngest records one successful ingestion.
func (m *Metrics) ObserveIngest(chunkCount int) {
	m.documentsIngested.Inc()
	m.chunksIndexed.Add(float64(chunkCount))
}

// ObserveQuery records one answered query.
func (m *Metrics) ObserveQuery(grounded bool, latency time.Duration) {
	m.queriesTotal.WithLabelValues(strconv.FormatBool(grounded)).Inc()
	m.retrievalLatency.Observe(latency.Seconds())
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
