// Package metrics provides Prometheus metrics for the podium scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names shared by several vectors.
const (
	labelTrigger    = "trigger"
	labelSink       = "sink"
	labelOperation  = "operation"
	labelResult     = "result"
	labelEndpoint   = "endpoint"
	labelMethod     = "method"
	labelStatusCode = "status_code"
	labelComponent  = "component"
	labelErrorType  = "error_type"
)

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring
	votesTotal       prometheus.Counter
	judgeSubmissions prometheus.Counter
	autoJudgeRuns    *prometheus.CounterVec

	// Recompute
	recomputeTotal   *prometheus.CounterVec
	recomputeErrors  *prometheus.CounterVec
	recomputeLatency *prometheus.HistogramVec
	leaderboardSize  prometheus.Gauge

	// Broadcast
	broadcastEnqueued  prometheus.Counter
	broadcastDropped   *prometheus.CounterVec
	broadcastDelivered *prometheus.CounterVec
	liveSubscribers    prometheus.Gauge
	outboxSize         prometheus.Gauge
	workerCount        prometheus.Gauge

	// Store
	storeLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec
	errorsByComponent   *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "podium",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.votesTotal = auto.NewCounter(m.counterOpts("votes_total", "Total number of accepted public votes"))
	m.judgeSubmissions = auto.NewCounter(m.counterOpts("judge_submissions_total", "Total number of accepted judge score sets"))
	m.autoJudgeRuns = auto.NewCounterVec(m.counterOpts("auto_judge_runs_total", "AutoJudge runs by result"),
		[]string{labelResult})

	m.recomputeTotal = auto.NewCounterVec(m.counterOpts("recompute_total", "Leaderboard recomputes by trigger"),
		[]string{labelTrigger})
	m.recomputeErrors = auto.NewCounterVec(m.counterOpts("recompute_errors_total", "Failed leaderboard recomputes by trigger"),
		[]string{labelTrigger})
	m.recomputeLatency = auto.NewHistogramVec(m.histogramOpts("recompute_latency_milliseconds", "Leaderboard recompute latency in milliseconds"),
		[]string{labelTrigger})
	m.leaderboardSize = auto.NewGauge(m.gaugeOpts("leaderboard_entries", "Number of entries in the most recently computed leaderboard"))

	m.broadcastEnqueued = auto.NewCounter(m.counterOpts("broadcast_enqueued_total", "Snapshots accepted by the outbox"))
	m.broadcastDropped = auto.NewCounterVec(m.counterOpts("broadcast_dropped_total", "Snapshots dropped by reason"),
		[]string{labelResult})
	m.broadcastDelivered = auto.NewCounterVec(m.counterOpts("broadcast_delivered_total", "Snapshots delivered by sink"),
		[]string{labelSink})
	m.liveSubscribers = auto.NewGauge(m.gaugeOpts("live_subscribers", "Number of connected live leaderboard sessions"))
	m.outboxSize = auto.NewGauge(m.gaugeOpts("outbox_size", "Current number of snapshots waiting in the outbox"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of running broadcast workers"))

	m.storeLatency = auto.NewHistogramVec(m.histogramOpts("store_latency_milliseconds", "Store operation latency in milliseconds"),
		[]string{labelOperation})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{labelEndpoint, labelMethod, labelStatusCode})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{labelEndpoint, labelMethod, labelStatusCode})
	m.httpRateLimited = auto.NewCounterVec(m.counterOpts("http_rate_limited_total", "Requests rejected by the rate limiter"),
		[]string{labelEndpoint})
	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total", "Errors by component and type"),
		[]string{labelComponent, labelErrorType})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Most recent GC pause in milliseconds"))
}

// RecordVote increments the accepted votes counter.
func RecordVote() { globalManager.votesTotal.Inc() }

// RecordJudgeSubmission increments the judge score set counter.
func RecordJudgeSubmission() { globalManager.judgeSubmissions.Inc() }

// RecordAutoJudge counts an AutoJudge run; result is "ok" or "no_metadata".
func RecordAutoJudge(result string) {
	globalManager.autoJudgeRuns.WithLabelValues(result).Inc()
}

// RecordRecompute records a completed recompute and its latency.
func RecordRecompute(trigger string, latencyMs float64) {
	globalManager.recomputeTotal.WithLabelValues(trigger).Inc()
	globalManager.recomputeLatency.WithLabelValues(trigger).Observe(latencyMs)
}

// RecordRecomputeError increments the failed recompute counter.
func RecordRecomputeError(trigger string) {
	globalManager.recomputeErrors.WithLabelValues(trigger).Inc()
}

// UpdateLeaderboardSize sets the size of the latest leaderboard.
func UpdateLeaderboardSize(n int) { globalManager.leaderboardSize.Set(float64(n)) }

// RecordBroadcastEnqueued increments the outbox accept counter.
func RecordBroadcastEnqueued() { globalManager.broadcastEnqueued.Inc() }

// RecordBroadcastDropped counts a dropped snapshot. Reasons: outbox_full, outbox_closed, stale, mailbox_full, duplicate.
func RecordBroadcastDropped(reason string) {
	globalManager.broadcastDropped.WithLabelValues(reason).Inc()
}

// RecordBroadcastDelivered counts a snapshot handed to a sink.
func RecordBroadcastDelivered(sink string) {
	globalManager.broadcastDelivered.WithLabelValues(sink).Inc()
}

// UpdateLiveSubscribers sets the live session count.
func UpdateLiveSubscribers(n int) { globalManager.liveSubscribers.Set(float64(n)) }

// UpdateOutboxSize sets the current outbox length.
func UpdateOutboxSize(n int) { globalManager.outboxSize.Set(float64(n)) }

// UpdateWorkerCount sets the number of running broadcast workers.
func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

// RecordStoreLatency records the latency of a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry for use in HTTP handlers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
