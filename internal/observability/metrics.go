package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsProcessed tracks per-item outcomes across the harness (§4.1).
	ItemsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kontent_migrate_items_processed_total",
			Help: "Total number of items processed by the harness, by stage and outcome",
		},
		[]string{"stage", "outcome"}, // outcome: valid, not_found, error
	)

	// StageDuration tracks wall-clock duration of each pipeline stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kontent_migrate_stage_duration_seconds",
			Help:    "Duration of each migration pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		},
		[]string{"stage"},
	)

	// APICallDuration tracks ManagementApi call latency.
	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kontent_migrate_api_call_duration_seconds",
			Help:    "Duration of ManagementApi calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"operation"},
	)

	// APICallsTotal tracks ManagementApi call outcomes.
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kontent_migrate_api_calls_total",
			Help: "Total number of ManagementApi calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RetryAttempts tracks retry attempts for ManagementApi calls (§5).
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kontent_migrate_retry_attempts_total",
			Help: "Total number of retry attempts by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// AssetBytes tracks asset binary bytes moved by direction.
	AssetBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kontent_migrate_asset_bytes_total",
			Help: "Total asset bytes transferred, by direction",
		},
		[]string{"direction"}, // download, upload
	)

	// WorkflowTransitions tracks variant workflow-step transitions driven
	// by C11.
	WorkflowTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kontent_migrate_workflow_transitions_total",
			Help: "Total number of language variant workflow transitions",
		},
		[]string{"to_step_kind", "result"},
	)
)

// Metrics provides a narrow facade over the package-level collectors, kept
// for parity with components that want an injectable handle rather than
// reaching for package globals directly (e.g. in tests that swap a no-op).
type Metrics struct{}

func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) RecordItem(stage, outcome string) {
	ItemsProcessed.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) RecordAPICall(operation, status string) {
	APICallsTotal.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) RecordAssetBytes(direction string, n float64) {
	AssetBytes.WithLabelValues(direction).Add(n)
}
