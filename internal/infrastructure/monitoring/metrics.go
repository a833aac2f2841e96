package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method", "status_code"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status_code"},
	)
)

var (
	CartOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Total number of cart mutations by outcome",
		},
		[]string{"operation", "result"},
	)

	CartLinesClampedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_lines_clamped_total",
			Help: "Total number of cart lines clamped to a stock ceiling",
		},
	)

	CartPersistenceFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_persistence_failures_total",
			Help: "Total number of cart writes that failed and were kept in memory",
		},
	)

	CheckoutAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_attempts_total",
			Help: "Total number of checkout attempts",
		},
	)

	CheckoutSuccessTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_success_total",
			Help: "Total number of successful checkouts",
		},
	)

	CheckoutFailureTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_failure_total",
			Help: "Total number of failed checkouts",
		},
		[]string{"reason"},
	)

	OrderValueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_value_total",
			Help: "Cumulative captured order value in dollars",
		},
	)

	CatalogProductsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_products_total",
			Help: "Number of products in the catalog",
		},
	)

	StockFilterHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_filter_hits_total",
			Help: "Total number of add attempts short-circuited by the sold-out filter",
		},
	)
)

var (
	SyncEventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_events_published_total",
			Help: "Total number of sync events published by this instance",
		},
		[]string{"event_type"},
	)

	SyncPublishFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_publish_failures_total",
			Help: "Total number of sync events dropped on channel write failure",
		},
		[]string{"event_type"},
	)

	SyncEventsAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_events_applied_total",
			Help: "Total number of external sync events applied",
		},
		[]string{"event_type"},
	)

	SyncEventsDiscardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_events_discarded_total",
			Help: "Total number of observed sync events discarded before dispatch",
		},
		[]string{"reason"},
	)
)

var (
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"query_type", "table"},
	)

	DBConnectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_connect_duration_seconds",
			Help:    "Duration of new database connection establishment in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	DBConnectFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_connect_failures_total",
			Help: "Total number of failed database connection attempts",
		},
	)

	DBPoolOpenConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_open_connections",
			Help: "Number of established connections in the portal database pool",
		},
	)

	DBPoolInUseConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_in_use_connections",
			Help: "Number of pool connections currently executing queries",
		},
	)

	DBPoolIdleConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_idle_connections",
			Help: "Number of idle connections in the portal database pool",
		},
	)

	DBPoolWaitCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_wait_count",
			Help: "Cumulative number of times a query waited for a pool connection",
		},
	)

	DBPoolWaitSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_wait_seconds",
			Help: "Cumulative time spent waiting for a pool connection",
		},
	)
)

var (
	RedisCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Duration of Redis commands in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"command"},
	)
)

func TimeHTTPRequest(handler, method string) func(statusCode string) {
	start := time.Now()
	return func(statusCode string) {
		duration := time.Since(start).Seconds()
		HTTPRequestDuration.WithLabelValues(handler, method, statusCode).Observe(duration)
		HTTPRequestsTotal.WithLabelValues(handler, method, statusCode).Inc()
	}
}

func TimeDBQuery(queryType, table string) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start).Seconds()
		DBQueryDuration.WithLabelValues(queryType, table).Observe(duration)
	}
}

func TimeRedisCommand(command string) func() {
	start := time.Now()
	return func() {
		duration := time.Since(start).Seconds()
		RedisCommandDuration.WithLabelValues(command).Observe(duration)
	}
}

func RecordCartOperation(operation, result string) {
	CartOperationsTotal.WithLabelValues(operation, result).Inc()
}

func RecordCartClamped() {
	CartLinesClampedTotal.Inc()
}

func RecordCartPersistenceFailure() {
	CartPersistenceFailuresTotal.Inc()
}

func RecordCheckoutAttempt() {
	CheckoutAttemptsTotal.Inc()
}

func RecordCheckoutSuccess(orderTotal float64) {
	CheckoutSuccessTotal.Inc()
	OrderValueTotal.Add(orderTotal)
}

func RecordCheckoutFailure(reason string) {
	CheckoutFailureTotal.WithLabelValues(reason).Inc()
}

func RecordStockFilterHit() {
	StockFilterHitsTotal.Inc()
}

func UpdateCatalogProductCount(count int) {
	CatalogProductsTotal.Set(float64(count))
}
