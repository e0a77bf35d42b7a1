package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValidationsTotal counts validation outcomes by status
	ValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "license_validations_total",
		Help: "Total number of key validations by outcome status",
	}, []string{"status"})

	// ValidationDuration tracks validation latency including store I/O
	ValidationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "license_validation_duration_seconds",
		Help:    "Histogram of key validation duration",
		Buckets: prometheus.DefBuckets,
	})

	// StoreErrors counts registry and flag store faults by operation
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "license_store_errors_total",
		Help: "Total number of store faults seen during validation",
	}, []string{"operation"})

	// MaintenanceActive is 1 while the maintenance gate is enabled
	MaintenanceActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "license_maintenance_active",
		Help: "Binary indicator of the maintenance gate (1 = active, 0 = inactive)",
	})

	// UsageResets counts counters zeroed by the reset job
	UsageResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "license_usage_resets_total",
		Help: "Total number of usage counters reset by the billing period job",
	})
)

// RateLimited counts requests rejected by the per-IP limiters
var RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "license_rate_limited_total",
	Help: "Total number of requests rejected by rate limiting",
}, []string{"scope"})
