package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "filedrop"

// Result label values.
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds the service collectors. Each Server owns its registry so
// tests can build many servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadedFiles   *prometheus.CounterVec
	uploadedBytes   prometheus.Counter
	uploadBatches   prometheus.Counter
	deletes         *prometheus.CounterVec
	downloadURLs    *prometheus.CounterVec
	listings        *prometheus.CounterVec
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		uploadedFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_files_total",
			Help:      "Files put to the bucket by result.",
		}, []string{"result"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes successfully put to the bucket.",
		}),
		uploadBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upload_batches_total",
			Help:      "Upload requests that carried at least one file.",
		}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deletes_total",
			Help:      "Delete requests by result.",
		}, []string{"result"}),
		downloadURLs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "download_urls_total",
			Help:      "Signed download URLs issued by result.",
		}, []string{"result"}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "listings_total",
			Help:      "Bucket listings by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.uploadedFiles,
		m.uploadedBytes,
		m.uploadBatches,
		m.deletes,
		m.downloadURLs,
		m.listings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) observeRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) recordUpload(bytes int, err error) {
	if err != nil {
		m.uploadedFiles.WithLabelValues(resultFailure).Inc()
		return
	}
	m.uploadedFiles.WithLabelValues(resultSuccess).Inc()
	m.uploadedBytes.Add(float64(bytes))
}

func resultLabel(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}
