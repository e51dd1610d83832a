// Package metrics provides Prometheus metrics for the lobby risk service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// riskBuckets spans the [0,100] risk range used by profile and lobby scores.
var riskBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 99, 100} //nolint:gochecknoglobals // static bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Lobby metrics
	lobbiesResolved prometheus.Counter
	lobbyRisk       prometheus.Histogram
	lobbySize       prometheus.Histogram
	lobbyLatency    prometheus.Histogram
	profileRisk     prometheus.Histogram

	// Cache metrics
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheReadDegraded  prometheus.Counter
	cacheWriteDegraded prometheus.Counter
	cacheWrites        prometheus.Counter

	// Task pool metrics
	tasksSubmitted    prometheus.Counter
	tasksSucceeded    prometheus.Counter
	tasksFailed       *prometheus.CounterVec
	tasksCoalesced    prometheus.Counter
	taskLatency       prometheus.Histogram
	renderLatency     prometheus.Histogram
	poolSize          prometheus.Gauge
	poolActive        prometheus.Gauge
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueWaitLatency  prometheus.Histogram
	queueEnqueueError prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// GetRegistry returns the registry the global manager publishes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lobbyrisk",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.lobbiesResolved = m.counter("lobbies_resolved_total", "Total number of lobby batches resolved")
	m.lobbyRisk = m.histogram("lobby_risk", "Distribution of aggregate lobby risk scores", riskBuckets)
	m.lobbySize = m.histogram("lobby_size", "Number of identities per resolved batch",
		[]float64{1, 2, 3, 5, 8, 10, 16, 32, 64})
	m.lobbyLatency = m.histogram("lobby_latency_milliseconds", "End-to-end batch resolution latency in milliseconds",
		m.histogramBuckets)
	m.profileRisk = m.histogram("profile_risk", "Distribution of freshly computed profile risk scores", riskBuckets)

	m.cacheHits = m.counter("cache_hits_total", "Identities served from the score cache")
	m.cacheMisses = m.counter("cache_misses_total", "Identities absent from the score cache")
	m.cacheReadDegraded = m.counter("cache_read_degraded_total", "Cache reads that failed and were treated as misses")
	m.cacheWriteDegraded = m.counter("cache_write_degraded_total", "Cache writes that failed and were skipped")
	m.cacheWrites = m.counter("cache_writes_total", "Snapshots written to the score cache")

	m.tasksSubmitted = m.counter("tasks_submitted_total", "Fetch-and-score tasks submitted to the pool")
	m.tasksSucceeded = m.counter("tasks_succeeded_total", "Fetch-and-score tasks that produced a score")
	m.tasksFailed = m.counterVec("tasks_failed_total", "Fetch-and-score tasks that failed, by reason", "reason")
	m.tasksCoalesced = m.counter("tasks_coalesced_total", "Dispatches that joined an in-flight task for the same identity")
	m.taskLatency = m.histogram("task_latency_milliseconds", "Fetch-and-score task latency in milliseconds",
		m.histogramBuckets)
	m.renderLatency = m.histogram("render_latency_milliseconds", "Render capability latency in milliseconds",
		m.histogramBuckets)
	m.poolSize = m.gauge("pool_size", "Configured number of task pool slots")
	m.poolActive = m.gauge("pool_active", "Task pool slots currently running a pipeline")
	m.queueSize = m.gauge("queue_size", "Tasks waiting for a free slot")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of buffered tasks")
	m.queueWaitLatency = m.histogram("queue_wait_milliseconds", "Time a task waited for a free slot in milliseconds",
		m.histogramBuckets)
	m.queueEnqueueError = m.counter("queue_enqueue_errors_total", "Tasks that could not be enqueued")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component",
		"component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Total number of errors by type",
		"error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that resulted in errors",
		"component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordLobbyResolved records one resolved batch with its size, aggregate and latency.
func RecordLobbyResolved(size int, risk, latencyMs float64) {
	globalManager.lobbiesResolved.Inc()
	globalManager.lobbySize.Observe(float64(size))
	globalManager.lobbyRisk.Observe(risk)
	globalManager.lobbyLatency.Observe(latencyMs)
}

// RecordProfileRisk records a freshly computed profile score.
func RecordProfileRisk(risk float64) {
	globalManager.profileRisk.Observe(risk)
}

// RecordCacheHits adds n cache hits.
func RecordCacheHits(n int) {
	globalManager.cacheHits.Add(float64(n))
}

// RecordCacheMisses adds n cache misses.
func RecordCacheMisses(n int) {
	globalManager.cacheMisses.Add(float64(n))
}

// RecordCacheReadDegraded counts a failed cache read.
func RecordCacheReadDegraded() {
	globalManager.cacheReadDegraded.Inc()
}

// RecordCacheWriteDegraded counts a failed cache write.
func RecordCacheWriteDegraded() {
	globalManager.cacheWriteDegraded.Inc()
}

// RecordCacheWrite counts a successful cache write.
func RecordCacheWrite() {
	globalManager.cacheWrites.Inc()
}

// RecordTaskSubmitted counts a task handed to the pool.
func RecordTaskSubmitted() {
	globalManager.tasksSubmitted.Inc()
}

// RecordTaskSucceeded counts a task that produced a score.
func RecordTaskSucceeded() {
	globalManager.tasksSucceeded.Inc()
}

// RecordTaskFailed counts a failed task by reason.
func RecordTaskFailed(reason string) {
	globalManager.tasksFailed.WithLabelValues(reason).Inc()
}

// RecordTaskCoalesced counts a dispatch that shared an in-flight task.
func RecordTaskCoalesced() {
	globalManager.tasksCoalesced.Inc()
}

// RecordTaskLatency records task latency in milliseconds.
func RecordTaskLatency(latencyMs float64) {
	globalManager.taskLatency.Observe(latencyMs)
}

// RecordRenderLatency records render latency in milliseconds.
func RecordRenderLatency(latencyMs float64) {
	globalManager.renderLatency.Observe(latencyMs)
}

// UpdatePoolSize sets the configured pool size.
func UpdatePoolSize(size int) {
	globalManager.poolSize.Set(float64(size))
}

// UpdatePoolActive sets the number of busy pool slots.
func UpdatePoolActive(active int) {
	globalManager.poolActive.Set(float64(active))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueWait records how long a task waited for a slot.
func RecordQueueWait(latencyMs float64) {
	globalManager.queueWaitLatency.Observe(latencyMs)
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueError.Inc()
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType increments the error counter for an error type.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint increments the error counter for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that failed.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}
