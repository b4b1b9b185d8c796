// Package metrics provides Prometheus metrics for the relocation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Decision engine
	estimates         *prometheus.CounterVec
	notionalBreakEven prometheus.Counter
	matches           prometheus.Counter
	computeLatency    *prometheus.HistogramVec

	// Result gate and leads
	sessionsCreated    *prometheus.CounterVec
	sessionsReleased   *prometheus.CounterVec
	leadsCreated       *prometheus.CounterVec
	validationFailures prometheus.Counter
	upstreamFailures   prometheus.Counter

	// Follow-up email
	emails      *prometheus.CounterVec
	sendLatency prometheus.Histogram

	// Catalog
	catalogReloads *prometheus.CounterVec
	catalogRegions prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// Runtime
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "relocator",
		subsystem:        "engine",
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

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.estimates = m.counterVec("estimates_total", "Budget estimates computed by move tier", "tier")
	m.notionalBreakEven = m.counter("break_even_notional_total", "Estimates whose break-even used the fallback divisor")
	m.matches = m.counter("matches_total", "Region matches computed")
	m.computeLatency = m.histogramVec("compute_latency_milliseconds", "Decision engine latency in milliseconds", "operation")

	m.sessionsCreated = m.counterVec("sessions_created_total", "Gated result sessions created", "source")
	m.sessionsReleased = m.counterVec("sessions_released_total", "Gated result sessions released to a contact", "source")
	m.leadsCreated = m.counterVec("leads_created_total", "Leads emitted to the lead store", "source")
	m.validationFailures = m.counter("lead_validation_failures_total", "Lead submissions rejected for a malformed contact")
	m.upstreamFailures = m.counter("lead_upstream_failures_total", "Lead submissions the lead store failed to accept")

	m.emails = m.counterVec("emails_total", "Follow-up emails by kind and delivery status", "kind", "status")
	m.sendLatency = m.histogram("email_send_latency_milliseconds", "Follow-up email send latency in milliseconds", m.histogramBuckets)

	m.catalogReloads = m.counterVec("catalog_reloads_total", "Catalog file reloads by result", "result")
	m.catalogRegions = m.gauge("catalog_regions", "Regions in the active catalog snapshot")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.rateLimited = m.counterVec("http_rate_limited_total", "HTTP requests rejected by the rate limiter", "endpoint")

	m.queueSize = m.gauge("queue_size", "Email jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum email queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Email jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Email jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Email jobs rejected by a full or closed queue")

	m.workerCount = m.gauge("worker_count", "Email workers in the pool")
	m.workerActiveCount = m.gauge("worker_active_count", "Email workers currently running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-job worker latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Email jobs that failed in a worker")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.memoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.goroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.gcPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordEstimate counts one estimate for tier.
func RecordEstimate(tier string, notional bool) {
	globalManager.estimates.WithLabelValues(tier).Inc()
	if notional {
		globalManager.notionalBreakEven.Inc()
	}
}

// RecordMatch counts one quiz match.
func RecordMatch() {
	globalManager.matches.Inc()
}

// RecordComputeLatency records how long an estimate or match took.
func RecordComputeLatency(operation string, latencyMs float64) {
	globalManager.computeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordSessionCreated counts a new gated session.
func RecordSessionCreated(source string) {
	globalManager.sessionsCreated.WithLabelValues(source).Inc()
}

// RecordSessionReleased counts a released session.
func RecordSessionReleased(source string) {
	globalManager.sessionsReleased.WithLabelValues(source).Inc()
}

// RecordLeadCreated counts an emitted lead.
func RecordLeadCreated(source string) {
	globalManager.leadsCreated.WithLabelValues(source).Inc()
}

// RecordValidationFailure counts a rejected contact.
func RecordValidationFailure() {
	globalManager.validationFailures.Inc()
}

// RecordUpstreamFailure counts a lead store failure.
func RecordUpstreamFailure() {
	globalManager.upstreamFailures.Inc()
}

// RecordEmail counts a follow-up email outcome.
func RecordEmail(kind, status string) {
	globalManager.emails.WithLabelValues(kind, status).Inc()
}

// RecordEmailSendLatency records provider latency for one message.
func RecordEmailSendLatency(latencyMs float64) {
	globalManager.sendLatency.Observe(latencyMs)
}

// RecordCatalogReload counts a catalog reload attempt; result is ok or error.
func RecordCatalogReload(result string) {
	globalManager.catalogReloads.WithLabelValues(result).Inc()
}

// UpdateCatalogRegions sets the active catalog size.
func UpdateCatalogRegions(count int) {
	globalManager.catalogRegions.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.memoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.goroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.gcPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
