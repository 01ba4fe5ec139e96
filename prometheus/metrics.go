package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "coherp"

var (
	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Campaign metrics
	CampaignSendsQueuedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_campaign_sends_queued_total",
			Help: "Total number of campaign sends queued",
		},
		[]string{"campaign_id"},
	)

	OutboxPublishCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_outbox_publish_total",
			Help: "Total number of outbox publish attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Dashboard cache metrics
	DashboardCacheCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_dashboard_cache_total",
			Help: "Dashboard cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// Stock classifier metrics
	StockStatusGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_stock_status_count",
			Help: "Fabric colours per reorder status from the last analysis run",
		},
		[]string{"status"},
	)
)

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordOutboxPublish increments the outbox publish counter
func RecordOutboxPublish(outcome string) {
	OutboxPublishCounter.WithLabelValues(outcome).Inc()
}

// RecordDashboardCache increments the dashboard cache counter
func RecordDashboardCache(outcome string) {
	DashboardCacheCounter.WithLabelValues(outcome).Inc()
}

// UpdateStockStatusCounts sets the per-status gauges after an analysis run
func UpdateStockStatusCounts(orderNow, orderSoon, ok int) {
	StockStatusGauge.WithLabelValues("ORDER_NOW").Set(float64(orderNow))
	StockStatusGauge.WithLabelValues("ORDER_SOON").Set(float64(orderSoon))
	StockStatusGauge.WithLabelValues("OK").Set(float64(ok))
}
