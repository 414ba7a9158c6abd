// Package metrics provides Prometheus metrics for the posecom service.
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
	registry         prometheus.Registerer

	// Ingestion
	detectionsAccepted  prometheus.Counter
	detectionsDuplicate prometheus.Counter
	detectionsRejected  *prometheus.CounterVec
	estimatorErrors     prometheus.Counter

	// Pipeline
	pipelineLatency  prometheus.Histogram
	mirrorFills      *prometheus.CounterVec
	segmentCOMs      *prometheus.CounterVec
	wholeBodyMissing *prometheus.CounterVec

	// Frame store
	framesStored   prometheus.Counter
	framesPinned   prometheus.Counter
	framesTotal    prometheus.Gauge
	jointEdits     prometheus.Counter
	activeSessions prometheus.Gauge

	// Export
	exports       *prometheus.CounterVec
	exportErrors  *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors register on the Prometheus default registerer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "posecom",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.detectionsAccepted = m.counter("detections_accepted_total", "Detections accepted for processing")
	m.detectionsDuplicate = m.counter("detections_duplicate_total", "Detections dropped as resubmissions")
	m.detectionsRejected = m.counterVec("detections_rejected_total", "Detections rejected before processing", "reason")
	m.estimatorErrors = m.counter("estimator_errors_total", "Frames skipped because the estimator failed")

	m.pipelineLatency = m.histogram("latency_milliseconds", "Time to extend one frame's landmark sets")
	m.mirrorFills = m.counterVec("mirror_fills_total", "Joints filled from their bilateral counterpart", "space")
	m.segmentCOMs = m.counterVec("segment_coms_total", "Segment centers of mass computed", "space")
	m.wholeBodyMissing = m.counterVec("whole_body_com_missing_total", "Frames without any segment center of mass", "space")

	m.framesStored = m.counter("frames_stored_total", "Frame records inserted or overwritten")
	m.framesPinned = m.counter("frames_pinned_total", "Overwrites that kept a hand edit pinned")
	m.framesTotal = m.gauge("frames", "Frame records held across sessions")
	m.jointEdits = m.counter("joint_edits_total", "Manual joint edits applied")
	m.activeSessions = m.gauge("sessions_active", "Open analysis sessions")

	m.exports = m.counterVec("exports_total", "Exports produced", "format")
	m.exportErrors = m.counterVec("export_errors_total", "Exports that failed", "format")
	m.exportLatency = m.histogramVec("export_latency_milliseconds", "Time to render an export", "format")

	m.queueSize = m.gauge("queue_size", "Detections waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue fill ratio (0-1)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Detections enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Detections dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Enqueue attempts rejected")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Time from enqueue to dequeue")

	m.workerCount = m.gauge("worker_count", "Configured workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Workers currently processing")
	m.workerIdleCount = m.gauge("worker_idle_count", "Workers waiting for work")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to process one detection")
	m.workerErrors = m.counter("worker_errors_total", "Detections that failed in a worker")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordDetectionAccepted counts a detection handed to the queue.
func RecordDetectionAccepted() { globalManager.detectionsAccepted.Inc() }

// RecordDetectionDuplicate counts a resubmitted detection.
func RecordDetectionDuplicate() { globalManager.detectionsDuplicate.Inc() }

// RecordDetectionRejected counts a detection rejected for reason.
func RecordDetectionRejected(reason string) {
	globalManager.detectionsRejected.WithLabelValues(reason).Inc()
}

// RecordEstimatorError counts a frame skipped after an estimator failure.
func RecordEstimatorError() { globalManager.estimatorErrors.Inc() }

// RecordPipelineLatency records how long one frame took to extend.
func RecordPipelineLatency(latencyMs float64) { globalManager.pipelineLatency.Observe(latencyMs) }

// RecordPipelineReport records what the pipeline derived for one set.
// space is "image" or "world".
func RecordPipelineReport(space string, mirrored, segments int, hasTotal bool) {
	globalManager.mirrorFills.WithLabelValues(space).Add(float64(mirrored))
	globalManager.segmentCOMs.WithLabelValues(space).Add(float64(segments))
	if !hasTotal {
		globalManager.wholeBodyMissing.WithLabelValues(space).Inc()
	}
}

// RecordFrameStored counts a frame upsert; pinned marks an overwrite that
// kept a manual edit.
func RecordFrameStored(pinned bool) {
	globalManager.framesStored.Inc()
	if pinned {
		globalManager.framesPinned.Inc()
	}
}

// AddFrames adjusts the stored frame gauge by delta.
func AddFrames(delta int) { globalManager.framesTotal.Add(float64(delta)) }

// RecordJointEdit counts a manual joint edit.
func RecordJointEdit() { globalManager.jointEdits.Inc() }

// UpdateActiveSessions sets the open session count.
func UpdateActiveSessions(count int) { globalManager.activeSessions.Set(float64(count)) }

// RecordExport records a finished export of format.
func RecordExport(format string, latencyMs float64) {
	globalManager.exports.WithLabelValues(format).Inc()
	globalManager.exportLatency.WithLabelValues(format).Observe(latencyMs)
}

// RecordExportError counts a failed export of format.
func RecordExportError(format string) { globalManager.exportErrors.WithLabelValues(format).Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) { globalManager.queueUtilization.Set(utilization) }

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueueRate.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeueRate.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// RecordQueueProcessingLatency records time spent waiting in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) { globalManager.workerActiveCount.Set(float64(count)) }

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) { globalManager.workerIdleCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
