package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siempreabierto_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "siempreabierto_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"method", "route"})
	LedgerEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siempreabierto_ledger_entries_total",
		Help: "Contributions appended to the ledger",
	}, []string{"target_type", "action"})
	GeoQueryDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "siempreabierto_geo_query_duration_ms",
		Help:    "Bounding box query plus exact radius filter duration in milliseconds",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
	}, []string{"entity"})
	GeoQueryCandidates = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "siempreabierto_geo_query_candidates",
		Help:    "Rows returned by the bounding box before the radius filter",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"entity"})
	RestrictionAlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siempreabierto_restriction_alerts_total",
		Help: "Restriction alerts emitted by severity",
	}, []string{"severity"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "siempreabierto_cache_hits_total",
		Help: "Total redis cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "siempreabierto_cache_misses_total",
		Help: "Total redis cache misses",
	})
	SyncPublishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "siempreabierto_sync_published_total",
		Help: "Contributions published by the sync process",
	})
	SyncFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "siempreabierto_sync_failures_total",
		Help: "Failed sync runs",
	})
	WorkerRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siempreabierto_worker_runs_total",
		Help: "Background worker runs by worker and status",
	}, []string{"worker", "status"})
	LiveSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "siempreabierto_live_subscriptions",
		Help: "Open websocket live subscriptions",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDurationMs)
	prometheus.MustRegister(LedgerEntriesTotal)
	prometheus.MustRegister(GeoQueryDurationMs)
	prometheus.MustRegister(GeoQueryCandidates)
	prometheus.MustRegister(RestrictionAlertsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(SyncPublishedTotal)
	prometheus.MustRegister(SyncFailuresTotal)
	prometheus.MustRegister(WorkerRunsTotal)
	prometheus.MustRegister(LiveSubscriptions)
}

// Handler отдаёт зарегистрированные метрики для /metrics
func Handler() http.Handler { return promhttp.Handler() }
