// Package metrics provides Prometheus metrics for the raid engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the raid engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Encounter Metrics - raid lifecycle
	raidsStarted   prometheus.Counter
	raidsCompleted *prometheus.CounterVec
	raidsActive    prometheus.Gauge
	partyJoins     prometheus.Counter
	partyLeaves    prometheus.Counter

	// Turn Metrics - combat flow
	turnsTaken   prometheus.Counter
	turnsSkipped prometheus.Counter
	turnLatency  prometheus.Histogram
	damageHearts prometheus.Counter

	// Concurrency Metrics - optimistic locking health
	versionConflicts  prometheus.Counter
	conflictExhausted prometheus.Counter

	// Loot Metrics - distribution outcomes
	lootGranted    *prometheus.CounterVec
	lootFailures   prometheus.Counter
	lootIneligible prometheus.Counter

	// Scheduler Metrics - durable timer jobs
	jobsScheduled prometheus.Counter
	jobsFired     prometheus.Counter
	jobsRearmed   prometheus.Counter
	jobsStale     prometheus.Counter
	jobsFailed    prometheus.Counter
	jobsPending   prometheus.Gauge
	sweepExpired  prometheus.Counter

	// Store Metrics - persistence performance
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Notification Metrics - outbound notice pipeline
	noticesQueued    prometheus.Counter
	noticesDropped   prometheus.Counter
	noticesDelivered prometheus.Counter
	noticeQueueSize  prometheus.Gauge

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tinglebot",
		subsystem:        "raid",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Encounter Metrics
	m.raidsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "raids_started_total",
		Help:      "Total number of raids started",
	})

	m.raidsCompleted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "raids_completed_total",
			Help:      "Total number of raids completed by outcome",
		},
		[]string{"outcome"},
	)

	m.raidsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "raids_active",
		Help:      "Current number of active raids",
	})

	m.partyJoins = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "party_joins_total",
		Help:      "Total number of characters that joined a raid",
	})

	m.partyLeaves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "party_leaves_total",
		Help:      "Total number of characters that left a raid",
	})

	// Turn Metrics
	m.turnsTaken = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "turns_taken_total",
		Help:      "Total number of combat turns resolved",
	})

	m.turnsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "turns_skipped_total",
		Help:      "Total number of turns skipped by the inactivity timer",
	})

	m.turnLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "turn_latency_milliseconds",
		Help:      "Histogram of turn resolution latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.damageHearts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "damage_hearts_total",
		Help:      "Total hearts of damage dealt to raid monsters",
	})

	// Concurrency Metrics
	m.versionConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "version_conflicts_total",
		Help:      "Total number of optimistic concurrency conflicts detected",
	})

	m.conflictExhausted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "conflict_retries_exhausted_total",
		Help:      "Total number of operations that gave up after repeated version conflicts",
	})

	// Loot Metrics
	m.lootGranted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "loot_granted_total",
			Help:      "Total number of loot items granted by rarity",
		},
		[]string{"rarity"},
	)

	m.lootFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loot_failures_total",
		Help:      "Total number of per-recipient loot grant failures",
	})

	m.lootIneligible = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loot_ineligible_total",
		Help:      "Total number of participants excluded from loot distribution",
	})

	// Scheduler Metrics
	m.jobsScheduled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_scheduled_total",
		Help:      "Total number of delayed jobs scheduled",
	})

	m.jobsFired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_fired_total",
		Help:      "Total number of delayed jobs claimed and executed",
	})

	m.jobsRearmed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_rearmed_total",
		Help:      "Total number of jobs re-armed because they fired early",
	})

	m.jobsStale = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_stale_total",
		Help:      "Total number of jobs discarded as stale at execution time",
	})

	m.jobsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_failed_total",
		Help:      "Total number of job executions that returned an error",
	})

	m.jobsPending = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_pending",
		Help:      "Current number of pending delayed jobs",
	})

	m.sweepExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sweep_expired_total",
		Help:      "Total number of overdue raids closed by the periodic sweep",
	})

	// Store Metrics
	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_update_latency_milliseconds",
		Help:      "Store update operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Store query operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Notification Metrics
	m.noticesQueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notices_queued_total",
		Help:      "Total number of notices accepted by the outbound queue",
	})

	m.noticesDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notices_dropped_total",
		Help:      "Total number of notices dropped because the queue was full",
	})

	m.noticesDelivered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notices_delivered_total",
		Help:      "Total number of notices delivered to at least one channel",
	})

	m.noticeQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notice_queue_size",
		Help:      "Current size of the outbound notice queue",
	})

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordRaidStarted increments the raids started counter.
func RecordRaidStarted() {
	globalManager.raidsStarted.Inc()
}

// RecordRaidCompleted increments the raids completed counter for an outcome.
func RecordRaidCompleted(outcome string) {
	globalManager.raidsCompleted.WithLabelValues(outcome).Inc()
}

// UpdateActiveRaids sets the current number of active raids.
func UpdateActiveRaids(count int) {
	globalManager.raidsActive.Set(float64(count))
}

// RecordPartyJoin increments the join counter.
func RecordPartyJoin() {
	globalManager.partyJoins.Inc()
}

// RecordPartyLeave increments the leave counter.
func RecordPartyLeave() {
	globalManager.partyLeaves.Inc()
}

// RecordTurnTaken increments the turns taken counter.
func RecordTurnTaken() {
	globalManager.turnsTaken.Inc()
}

// RecordTurnSkipped increments the skipped turns counter.
func RecordTurnSkipped() {
	globalManager.turnsSkipped.Inc()
}

// RecordTurnLatency records turn resolution latency in milliseconds.
func RecordTurnLatency(latencyMs float64) {
	globalManager.turnLatency.Observe(latencyMs)
}

// RecordDamage adds dealt hearts to the damage counter.
func RecordDamage(hearts int) {
	if hearts > 0 {
		globalManager.damageHearts.Add(float64(hearts))
	}
}

// RecordVersionConflict increments the version conflict counter.
func RecordVersionConflict() {
	globalManager.versionConflicts.Inc()
}

// RecordConflictExhausted increments the exhausted-retries counter.
func RecordConflictExhausted() {
	globalManager.conflictExhausted.Inc()
}

// RecordLootGranted increments the loot counter for a rarity.
func RecordLootGranted(rarity string) {
	globalManager.lootGranted.WithLabelValues(rarity).Inc()
}

// RecordLootFailure increments the loot failure counter.
func RecordLootFailure() {
	globalManager.lootFailures.Inc()
}

// RecordLootIneligible increments the ineligible participant counter.
func RecordLootIneligible() {
	globalManager.lootIneligible.Inc()
}

// Scheduler Metrics Functions.

// RecordJobScheduled increments the scheduled jobs counter.
func RecordJobScheduled() {
	globalManager.jobsScheduled.Inc()
}

// RecordJobFired increments the fired jobs counter.
func RecordJobFired() {
	globalManager.jobsFired.Inc()
}

// RecordJobRearmed increments the re-armed jobs counter.
func RecordJobRearmed() {
	globalManager.jobsRearmed.Inc()
}

// RecordJobStale increments the stale jobs counter.
func RecordJobStale() {
	globalManager.jobsStale.Inc()
}

// RecordJobFailed increments the failed jobs counter.
func RecordJobFailed() {
	globalManager.jobsFailed.Inc()
}

// UpdateJobsPending sets the current number of pending jobs.
func UpdateJobsPending(count int) {
	globalManager.jobsPending.Set(float64(count))
}

// RecordSweepExpired adds the number of raids closed by a sweep pass.
func RecordSweepExpired(count int) {
	if count > 0 {
		globalManager.sweepExpired.Add(float64(count))
	}
}

// Store Metrics Functions.

// RecordStoreUpdateLatency records store update operation latency.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records store query operation latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Notification Metrics Functions.

// RecordNoticeQueued increments the queued notices counter.
func RecordNoticeQueued() {
	globalManager.noticesQueued.Inc()
}

// RecordNoticeDropped increments the dropped notices counter.
func RecordNoticeDropped() {
	globalManager.noticesDropped.Inc()
}

// RecordNoticeDelivered increments the delivered notices counter.
func RecordNoticeDelivered() {
	globalManager.noticesDelivered.Inc()
}

// UpdateNoticeQueueSize sets the current outbound queue size.
func UpdateNoticeQueueSize(size int) {
	globalManager.noticeQueueSize.Set(float64(size))
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
