// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tone_monitor"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Monitor metrics
	MonitorEnabled    prometheus.Gauge
	SessionsStarted   prometheus.Counter
	SessionsFailed    *prometheus.CounterVec
	PermissionDenials prometheus.Counter

	// Chunk metrics
	ChunksStarted      prometheus.Counter
	ChunksCompleted    prometheus.Counter
	ChunksFailed       prometheus.Counter
	ChunkFilesCreated  prometheus.Counter
	ChunkFilesDeleted  prometheus.Counter
	ChunkDeleteErrors  prometheus.Counter
	OrphanChunksPurged prometheus.Counter

	// STT metrics
	STTLatency *prometheus.HistogramVec
	STTErrors  *prometheus.CounterVec
	STTEmpty   prometheus.Counter

	// Classifier metrics
	ClassifierLatency  *prometheus.HistogramVec
	ClassifierVerdicts *prometheus.CounterVec
	ClassifierFailures *prometheus.CounterVec

	// Notification metrics
	NotificationsSent       prometheus.Counter
	NotificationsSuppressed prometheus.Counter
	NotificationsFailed     prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// RPC metrics
	RPCCalls    *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Monitor metrics
		MonitorEnabled: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "enabled",
			Help:      "1 while the monitor is recording, 0 otherwise",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of monitoring sessions started",
		}),
		SessionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_failed_total",
			Help:      "Total number of sessions disabled by an unrecoverable error",
		}, []string{"reason"}),
		PermissionDenials: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_denials_total",
			Help:      "Total number of start attempts refused for lack of permission",
		}),

		// Chunk metrics
		ChunksStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_started_total",
			Help:      "Total number of audio chunk recordings started",
		}),
		ChunksCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_completed_total",
			Help:      "Total number of audio chunks recorded successfully",
		}),
		ChunksFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_failed_total",
			Help:      "Total number of audio chunk recordings that failed",
		}),
		ChunkFilesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_files_created_total",
			Help:      "Total number of chunk files tracked",
		}),
		ChunkFilesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_files_deleted_total",
			Help:      "Total number of chunk files released",
		}),
		ChunkDeleteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_delete_errors_total",
			Help:      "Total number of chunk file deletions that failed",
		}),
		OrphanChunksPurged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_chunks_purged_total",
			Help:      "Total number of leftover chunk files removed by bulk cleanup",
		}),

		// STT metrics
		STTLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Chunk transcription latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"provider"}),
		STTErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of transcription errors",
		}, []string{"provider"}),
		STTEmpty: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_empty_transcripts_total",
			Help:      "Total number of chunks that produced no text",
		}),

		// Classifier metrics
		ClassifierLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_latency_seconds",
			Help:      "Tone classification latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"outcome"}),
		ClassifierVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_verdicts_total",
			Help:      "Total number of tone verdicts by outcome",
		}, []string{"verdict"}),
		ClassifierFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_failures_total",
			Help:      "Total number of classifier failures by reason",
		}, []string{"reason"}),

		// Notification metrics
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total number of disagreeable tone alerts delivered",
		}),
		NotificationsSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_suppressed_total",
			Help:      "Total number of alerts suppressed by the cooldown",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Total number of alerts that failed to deliver",
		}),

		// Kafka publish metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		// RPC metrics
		RPCCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_calls_total",
			Help:      "Total number of gRPC calls served",
		}, []string{"method", "code"}),
		RPCDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "gRPC call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method"}),
	}
}

// SetEnabled reflects the monitor's enabled flag.
func (m *Metrics) SetEnabled(enabled bool) {
	if enabled {
		m.MonitorEnabled.Set(1)
	} else {
		m.MonitorEnabled.Set(0)
	}
}

// RecordSessionStart records a monitoring session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsStarted.Inc()
}

// RecordSessionFailed records a session forced off by an error.
func (m *Metrics) RecordSessionFailed(reason string) {
	m.SessionsFailed.WithLabelValues(reason).Inc()
}

// RecordPermissionDenied records a refused start.
func (m *Metrics) RecordPermissionDenied() {
	m.PermissionDenials.Inc()
}

// RecordChunkStarted records a chunk recording starting.
func (m *Metrics) RecordChunkStarted() {
	m.ChunksStarted.Inc()
}

// RecordChunkFinished records the outcome of a chunk recording.
func (m *Metrics) RecordChunkFinished(ok bool) {
	if ok {
		m.ChunksCompleted.Inc()
	} else {
		m.ChunksFailed.Inc()
	}
}

// RecordChunkFileCreated records a chunk file entering the tracker.
func (m *Metrics) RecordChunkFileCreated() {
	m.ChunkFilesCreated.Inc()
}

// RecordChunkFileDeleted records a chunk file release.
func (m *Metrics) RecordChunkFileDeleted(err error) {
	m.ChunkFilesDeleted.Inc()
	if err != nil {
		m.ChunkDeleteErrors.Inc()
	}
}

// RecordOrphansPurged records files removed by bulk cleanup.
func (m *Metrics) RecordOrphansPurged(n int) {
	m.OrphanChunksPurged.Add(float64(n))
}

// RecordTranscription records a transcription attempt.
func (m *Metrics) RecordTranscription(provider string, err error, empty bool, latencySeconds float64) {
	m.STTLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.STTErrors.WithLabelValues(provider).Inc()
		return
	}
	if empty {
		m.STTEmpty.Inc()
	}
}

// RecordVerdict records a successful classification.
func (m *Metrics) RecordVerdict(agreeable bool, latencySeconds float64) {
	m.ClassifierLatency.WithLabelValues("ok").Observe(latencySeconds)
	if agreeable {
		m.ClassifierVerdicts.WithLabelValues("agreeable").Inc()
	} else {
		m.ClassifierVerdicts.WithLabelValues("disagreeable").Inc()
	}
}

// RecordClassifierFailure records a classifier failure.
func (m *Metrics) RecordClassifierFailure(reason string, latencySeconds float64) {
	m.ClassifierLatency.WithLabelValues("error").Observe(latencySeconds)
	m.ClassifierFailures.WithLabelValues(reason).Inc()
}

// RecordNotification records the outcome of an alert dispatch.
func (m *Metrics) RecordNotification(err error) {
	if err != nil {
		m.NotificationsFailed.Inc()
		return
	}
	m.NotificationsSent.Inc()
}

// RecordNotificationSuppressed records an alert held back by the cooldown.
func (m *Metrics) RecordNotificationSuppressed() {
	m.NotificationsSuppressed.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordRPC records a served gRPC call.
func (m *Metrics) RecordRPC(method, code string, durationSeconds float64) {
	m.RPCCalls.WithLabelValues(method, code).Inc()
	m.RPCDuration.WithLabelValues(method).Observe(durationSeconds)
}
