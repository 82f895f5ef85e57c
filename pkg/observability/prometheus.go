package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// PrometheusHooks records every hook event as Prometheus metrics.
type PrometheusHooks struct {
	resolveTotal     *prometheus.CounterVec
	resolveDuration  prometheus.Histogram
	resolveArtifacts prometheus.Histogram
	diagnosticsTotal *prometheus.CounterVec

	downloadTotal    *prometheus.CounterVec
	downloadBytes    prometheus.Counter
	downloadDuration prometheus.Histogram

	cacheTotal    *prometheus.CounterVec
	cacheSetBytes *prometheus.CounterVec

	httpRequestsTotal *prometheus.CounterVec
	httpErrorsTotal   *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors and registers them with reg.
// It panics if any collector is already registered, like MustRegister.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		resolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mvnfetch_resolve_total",
				Help: "Number of resolution runs by outcome code.",
			},
			[]string{"code"},
		),
		resolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mvnfetch_resolve_duration_seconds",
				Help:    "Time taken to resolve a dependency graph.",
				Buckets: prometheus.DefBuckets,
			},
		),
		resolveArtifacts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mvnfetch_resolve_artifacts",
				Help:    "Number of artifacts in resolved graphs.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		diagnosticsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mvnfetch_resolve_diagnostics_total",
				Help: "Number of resolution diagnostics by kind.",
			},
			[]string{"kind"},
		),
		downloadTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mvnfetch_download_total",
				Help: "Number of materialized artifacts by source and outcome.",
			},
			[]string{"source", "code"},
		),
		downloadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mvnfetch_download_bytes_total",
				Help: "Bytes fetched from remote repositories.",
			},
		),
		downloadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mvnfetch_download_duration_seconds",
				Help:    "Time taken to materialize a single artifact.",
				Buckets: prometheus.DefBuckets,
			},
		),
		cacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mvnfetch_cache_requests_total",
				Help: "Metadata cache lookups by key type and result.",
			},
			[]string{"key_type", "result"},
		),
		cacheSetBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mvnfetch_cache_set_bytes_total",
				Help: "Bytes written to the metadata cache by key type.",
			},
			[]string{"key_type"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mvnfetch_http_requests_total",
				Help: "Repository HTTP responses by host and status.",
			},
			[]string{"host", "status"},
		),
		httpErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mvnfetch_http_errors_total",
				Help: "Repository HTTP transport failures by host.",
			},
			[]string{"host"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mvnfetch_http_request_duration_seconds",
				Help:    "Repository HTTP request latency by host.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"host"},
		),
	}

	reg.MustRegister(
		h.resolveTotal,
		h.resolveDuration,
		h.resolveArtifacts,
		h.diagnosticsTotal,
		h.downloadTotal,
		h.downloadBytes,
		h.downloadDuration,
		h.cacheTotal,
		h.cacheSetBytes,
		h.httpRequestsTotal,
		h.httpErrorsTotal,
		h.httpDuration,
	)
	return h
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return string(errors.ErrCodeInternal)
}

func (h *PrometheusHooks) OnResolveStart(context.Context, []string) {}

func (h *PrometheusHooks) OnResolveComplete(_ context.Context, _ []string, artifacts int, d time.Duration, err error) {
	h.resolveTotal.WithLabelValues(outcome(err)).Inc()
	h.resolveDuration.Observe(d.Seconds())
	if err == nil {
		h.resolveArtifacts.Observe(float64(artifacts))
	}
}

func (h *PrometheusHooks) OnDiagnostic(_ context.Context, kind, _ string) {
	h.diagnosticsTotal.WithLabelValues(kind).Inc()
}

func (h *PrometheusHooks) OnDownloadStart(context.Context, string) {}

func (h *PrometheusHooks) OnDownloadComplete(_ context.Context, _ string, size int64, cached bool, d time.Duration, err error) {
	source := "remote"
	if cached {
		source = "cache"
	}
	h.downloadTotal.WithLabelValues(source, outcome(err)).Inc()
	h.downloadDuration.Observe(d.Seconds())
	if !cached && err == nil {
		h.downloadBytes.Add(float64(size))
	}
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheSetBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.httpRequestsTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
	h.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.httpErrorsTotal.WithLabelValues(host).Inc()
}

var _ AllHooks = (*PrometheusHooks)(nil)
