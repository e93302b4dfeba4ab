package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Sync metrics
	SyncRuns       *prometheus.CounterVec
	SyncRecords    *prometheus.CounterVec
	SyncDuration   *prometheus.HistogramVec
	TenantsSynced  prometheus.Counter
	LastSyncUnixMs *prometheus.GaugeVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the metrics on a private registry along with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SyncRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_sync_runs_total",
				Help: "Total number of sync stages run",
			},
			[]string{"resource", "status"},
		),

		SyncRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_sync_records_total",
				Help: "Total number of records upserted by sync",
			},
			[]string{"resource"},
		),

		SyncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insights_sync_duration_seconds",
				Help:    "Duration of sync stages",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource"},
		),

		TenantsSynced: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "insights_tenants_synced_total",
				Help: "Total number of tenant sync runs completed",
			},
		),

		LastSyncUnixMs: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "insights_last_sync_unix_ms",
				Help: "Time of the last completed sync per tenant",
			},
			[]string{"tenant_id"},
		),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_cache_hits_total",
				Help: "Total number of analytics cache hits",
			},
			[]string{"key"},
		),

		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_cache_misses_total",
				Help: "Total number of analytics cache misses",
			},
			[]string{"key"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insights_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveSyncStage records one customers, products or orders stage of a tenant sync.
func (m *Metrics) ObserveSyncStage(resource string, records int, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SyncRuns.WithLabelValues(resource, status).Inc()
	m.SyncRecords.WithLabelValues(resource).Add(float64(records))
	m.SyncDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// ObserveTenantSynced records a completed tenant run.
func (m *Metrics) ObserveTenantSynced(tenantID string, at time.Time) {
	m.TenantsSynced.Inc()
	m.LastSyncUnixMs.WithLabelValues(tenantID).Set(float64(at.UnixMilli()))
}

func (m *Metrics) ObserveCache(key string, hit bool) {
	if hit {
		m.CacheHits.WithLabelValues(key).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(key).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
