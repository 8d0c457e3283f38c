// Package observability bundles the logger, metrics, and tracer handed to every module.
package observability

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics records service-operation outcomes. One implementation is shared by
// all modules; operation/service labels keep the series apart.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, d time.Duration)
	RecordCacheHit(ctx context.Context, tier, key string)
	RecordCacheMiss(ctx context.Context, tier, key string)
	RecordTokenParseFailure(ctx context.Context, site string)
}

// Config controls observability initialization.
type Config struct {
	ServiceName    string
	Environment    string
	Version        string
	MetricsAddress string
	LogOutput      io.Writer
}

// Observability is the bundle passed to module constructors.
type Observability struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  Metrics
	Tracer   trace.Tracer

	metricsServer *http.Server
}

// Init builds the logger, registry, and tracer and optionally starts the
// /metrics listener.
func Init(ctx context.Context, cfg Config) (*Observability, error) {
	out := cfg.LogOutput
	if out == nil {
		out = os.Stdout
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", cfg.ServiceName),
		slog.String("env", cfg.Environment),
		slog.String("version", cfg.Version),
	)

	registry := prometheus.NewRegistry()
	metrics := newPrometheusMetrics(registry)

	tracer := otel.GetTracerProvider().Tracer(cfg.ServiceName)

	obs := &Observability{
		Logger:   logger,
		Registry: registry,
		Metrics:  metrics,
		Tracer:   tracer,
	}

	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		obs.metricsServer = &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
		go func() {
			if err := obs.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics listener stopped", slog.String("error", err.Error()))
			}
		}()
	}

	return obs, nil
}

// Shutdown stops the metrics listener.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.metricsServer != nil {
		return o.metricsServer.Shutdown(ctx)
	}
	return nil
}

// NewNoOp returns a bundle safe for tests: discard logger, noop tracer, no-op metrics.
func NewNoOp() *Observability {
	return &Observability{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: prometheus.NewRegistry(),
		Metrics:  &NoOpMetrics{},
		Tracer:   noop.NewTracerProvider().Tracer("test"),
	}
}

type prometheusMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	cacheHits *prometheus.CounterVec
	cacheMiss *prometheus.CounterVec
	parseFail *prometheus.CounterVec
}

func newPrometheusMetrics(reg *prometheus.Registry) *prometheusMetrics {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_operation_attempts_total",
			Help: "Service operation attempts.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_operation_successes_total",
			Help: "Service operation successes.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_operation_failures_total",
			Help: "Service operation failures.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hearth_operation_duration_seconds",
			Help:    "Service operation durations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_cache_hits_total",
			Help: "Cache hits by tier.",
		}, []string{"tier"}),
		cacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_cache_misses_total",
			Help: "Cache misses by tier.",
		}, []string{"tier"}),
		parseFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_token_parse_failures_total",
			Help: "Ledger tokens skipped for failing the grammar.",
		}, []string{"site"}),
	}
	reg.MustRegister(m.attempts, m.successes, m.failures, m.durations, m.cacheHits, m.cacheMiss, m.parseFail)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(d.Seconds())
}

func (m *prometheusMetrics) RecordCacheHit(_ context.Context, tier, _ string) {
	m.cacheHits.WithLabelValues(tier).Inc()
}

func (m *prometheusMetrics) RecordCacheMiss(_ context.Context, tier, _ string) {
	m.cacheMiss.WithLabelValues(tier).Inc()
}

func (m *prometheusMetrics) RecordTokenParseFailure(_ context.Context, site string) {
	m.parseFail.WithLabelValues(site).Inc()
}

// NoOpMetrics satisfies Metrics without recording anything.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, string) {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, string) {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, string) {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {
}
func (NoOpMetrics) RecordCacheHit(context.Context, string, string)  {}
func (NoOpMetrics) RecordCacheMiss(context.Context, string, string) {}
func (NoOpMetrics) RecordTokenParseFailure(context.Context, string) {}
