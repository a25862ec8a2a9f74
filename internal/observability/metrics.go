package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/project-radar/internal/platform/envutil"
	"github.com/yungbote/project-radar/internal/platform/logger"
)

// Metrics owns a private registry so tests and multiple app instances never
// collide on the global default.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests  *prometheus.CounterVec
	apiLatency   *prometheus.HistogramVec
	apiInflight  prometheus.Gauge
	aggOps       *prometheus.HistogramVec
	aggConflicts *prometheus.CounterVec
	aggRetries   *prometheus.CounterVec
	advances     *prometheus.HistogramVec
	blips        prometheus.Gauge
	unplaced     *prometheus.GaugeVec
	cacheLookups *prometheus.CounterVec
	factAppends  *prometheus.CounterVec
	seqRetries   *prometheus.CounterVec
	dbStats      *prometheus.GaugeVec
	redisUp      prometheus.Gauge
	redisPing    prometheus.Gauge
}

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", true)
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "radar_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "radar_api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		aggOps: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "radar_aggregate_operation_duration_seconds",
			Help:    "Aggregate write duration by operation and outcome.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"operation", "status"}),
		aggConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_aggregate_conflicts_total",
			Help: "Aggregate writes rejected by a concurrency guard.",
		}, []string{"operation"}),
		aggRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_aggregate_retryable_total",
			Help: "Aggregate writes that failed with a retryable error.",
		}, []string{"operation"}),
		advances: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "radar_advance_duration_seconds",
			Help:    "Radar advance duration by outcome.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"status"}),
		blips: f.NewGauge(prometheus.GaugeOpts{
			Name: "radar_live_blips",
			Help: "Blips on the most recently published edition.",
		}),
		unplaced: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "radar_unplaced_projects",
			Help: "Projects left off the most recent snapshot by reason.",
		}, []string{"reason"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_rendering_cache_lookups_total",
			Help: "Rendering cache lookups by result.",
		}, []string{"result"}),
		factAppends: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_fact_appends_total",
			Help: "Appended facts by kind.",
		}, []string{"kind"}),
		seqRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_sequence_cas_retries_total",
			Help: "Sequence compare-and-swap retries by sequence name.",
		}, []string{"sequence"}),
		dbStats: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "radar_db_pool",
			Help: "Database connection pool statistics.",
		}, []string{"stat"}),
		redisUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "radar_redis_up",
			Help: "Redis connectivity (1=up, 0=down).",
		}),
		redisPing: f.NewGauge(prometheus.GaugeOpts{
			Name: "radar_redis_ping_seconds",
			Help: "Redis ping latency in seconds.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggOps.WithLabelValues(name, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggConflicts.WithLabelValues(name).Inc()
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggRetries.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveAdvance(status string, blips int, dur time.Duration) {
	if m == nil {
		return
	}
	m.advances.WithLabelValues(status).Observe(dur.Seconds())
	if status == "success" {
		m.blips.Set(float64(blips))
	}
}

func (m *Metrics) SetUnplaced(reason string, n int) {
	if m == nil {
		return
	}
	m.unplaced.WithLabelValues(reason).Set(float64(n))
}

func (m *Metrics) IncCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(strings.TrimSpace(result)).Inc()
}

func (m *Metrics) IncFactAppend(kind string) {
	if m == nil {
		return
	}
	m.factAppends.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncSequenceRetry(name string) {
	if m == nil {
		return
	}
	m.seqRetries.WithLabelValues(name).Inc()
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func scrapeInterval() time.Duration {
	d := envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
