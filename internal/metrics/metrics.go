// Package metrics exposes Prometheus counters for the pipeline stages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all pipeline metrics
const namespace = "finds"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// CapturesStored counts raw captures persisted by ingestion
var CapturesStored = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captures_stored_total",
		Help:      "Raw captures persisted, by source",
	},
	[]string{"source"},
)

// CapturesDeduplicated counts captures skipped by content hash
var CapturesDeduplicated = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captures_deduplicated_total",
		Help:      "Captures skipped because an identical payload already existed, by source",
	},
	[]string{"source"},
)

// CapturesFailed counts connector failures during ingestion
var CapturesFailed = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captures_failed_total",
		Help:      "Connector fetch/save failures, by source",
	},
	[]string{"source"},
)

// ExtractionsTotal counts extraction attempts by outcome
var ExtractionsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extractions_total",
		Help:      "Extraction attempts, by source and outcome (extracted, already_extracted, failed)",
	},
	[]string{"source", "outcome"},
)

// ExtractionDuration tracks how long one capture takes to extract
var ExtractionDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Duration of one capture extraction in seconds",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"source"},
)

// RetriesTotal counts quarantine retry attempts by outcome
var RetriesTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quarantine_retries_total",
		Help:      "Quarantine retry attempts, by outcome (succeeded, failed)",
	},
	[]string{"outcome"},
)

// EntitiesFinalized counts canonical entity upserts by result
var EntitiesFinalized = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entities_finalized_total",
		Help:      "Canonical entity upserts, by result (created, updated)",
	},
	[]string{"result"},
)

// MergeConflicts counts near-trust merge disputes surfaced during finalization
var MergeConflicts = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "merge_conflicts_total",
		Help:      "Field-level merge conflicts surfaced, by field",
	},
	[]string{"field"},
)

// LLMTokensTotal counts tokens spent by LLM-backed extractors
var LLMTokensTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_tokens_total",
		Help:      "LLM tokens consumed, by model and direction (in, out)",
	},
	[]string{"model", "direction"},
)

// LLMCostUSD accumulates estimated LLM spend
var LLMCostUSD = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_cost_usd_total",
		Help:      "Estimated LLM cost in USD, by model",
	},
	[]string{"model"},
)

// Init registers runtime collectors and sets the app info metric.
// Call once at startup.
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
