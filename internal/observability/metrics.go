// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	EventsReceived   prometheus.Counter
	EventsAccepted   prometheus.Counter
	EventsDropped    *prometheus.CounterVec
	EventsDuplicated prometheus.Counter
	QueueDepth       prometheus.Gauge
	ReplayBufferSize prometheus.Gauge

	// Evaluation metrics
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationsBlocked *prometheus.CounterVec
	ReflexOverrides    *prometheus.CounterVec
	SelfCheckResults   *prometheus.CounterVec
	EvaluationLatency  prometheus.Histogram
	ScoreDistribution  prometheus.Histogram

	// Feedback metrics
	OutcomesRecorded  *prometheus.CounterVec
	TokensBlacklisted prometheus.Counter

	// Maintenance metrics
	DecayRunsTotal prometheus.Counter
	TrimRunsTotal  *prometheus.CounterVec
	EntriesTrimmed *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastEventTimestamp      prometheus.Gauge
	LastEvaluationTimestamp prometheus.Gauge
	UptimeSeconds           prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_snipe_engine"
	}

	return &Metrics{
		// Ingestion metrics
		EventsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_received_total",
			Help:      "Total number of launch events received",
		}),
		EventsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_accepted_total",
			Help:      "Total number of launch events accepted for evaluation",
		}),
		EventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_dropped_total",
			Help:      "Total number of launch events dropped by reason",
		}, []string{"reason"}),
		EventsDuplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_duplicated_total",
			Help:      "Total number of events suppressed by the dedup cooldown",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "queue_depth",
			Help:      "Current number of events waiting in the evaluation queue",
		}),
		ReplayBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "replay_buffer_size",
			Help:      "Current number of entries in the replay buffer",
		}),

		// Evaluation metrics
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Total number of evaluations by action and mode",
		}, []string{"action", "mode"}),
		EvaluationsBlocked: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_blocked_total",
			Help:      "Total number of evaluations blocked by the gate by reason",
		}, []string{"reason"}),
		ReflexOverrides: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "reflex_overrides_total",
			Help:      "Total number of reflex vetoes by reason",
		}, []string{"reason"}),
		SelfCheckResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "self_check_results_total",
			Help:      "Total number of self-check verdicts by status",
		}, []string{"status"}),
		EvaluationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluation_latency_seconds",
			Help:      "Evaluation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ScoreDistribution: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "score",
			Help:      "Distribution of final evaluation scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		// Feedback metrics
		OutcomesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "outcomes_recorded_total",
			Help:      "Total number of trade outcomes recorded by outcome",
		}, []string{"outcome"}),
		TokensBlacklisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "tokens_blacklisted_total",
			Help:      "Total number of tokens auto-blacklisted after a rug",
		}),

		// Maintenance metrics
		DecayRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "decay_runs_total",
			Help:      "Total number of memory decay passes",
		}),
		TrimRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "trim_runs_total",
			Help:      "Total number of trim passes by store",
		}, []string{"store"}),
		EntriesTrimmed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "maintenance",
			Name:      "entries_trimmed_total",
			Help:      "Total number of entries removed by trim passes by store",
		}, []string{"store"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastEventTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_event_timestamp",
			Help:      "Unix timestamp of the last launch event received",
		}),
		LastEvaluationTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_evaluation_timestamp",
			Help:      "Unix timestamp of the last completed evaluation",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventReceived increments the events received counter.
func RecordEventReceived() {
	DefaultMetrics.EventsReceived.Inc()
	DefaultMetrics.LastEventTimestamp.SetToCurrentTime()
}

// RecordEventAccepted increments the events accepted counter.
func RecordEventAccepted() {
	DefaultMetrics.EventsAccepted.Inc()
}

// RecordEventDropped records a dropped event by reason.
func RecordEventDropped(reason string) {
	DefaultMetrics.EventsDropped.WithLabelValues(reason).Inc()
}

// RecordEventDuplicated increments the dedup suppression counter.
func RecordEventDuplicated() {
	DefaultMetrics.EventsDuplicated.Inc()
}

// UpdateQueueDepth updates the evaluation queue depth gauge.
func UpdateQueueDepth(depth int) {
	DefaultMetrics.QueueDepth.Set(float64(depth))
}

// UpdateReplayBufferSize updates the replay buffer size gauge.
func UpdateReplayBufferSize(size int) {
	DefaultMetrics.ReplayBufferSize.Set(float64(size))
}

// RecordEvaluation records a completed evaluation.
func RecordEvaluation(action, mode string, score float64, seconds float64) {
	DefaultMetrics.EvaluationsTotal.WithLabelValues(action, mode).Inc()
	DefaultMetrics.ScoreDistribution.Observe(score)
	DefaultMetrics.EvaluationLatency.Observe(seconds)
	DefaultMetrics.LastEvaluationTimestamp.SetToCurrentTime()
}

// RecordBlocked records a gate-blocked evaluation.
func RecordBlocked(reason string) {
	DefaultMetrics.EvaluationsBlocked.WithLabelValues(reason).Inc()
}

// RecordReflexOverride records a reflex veto.
func RecordReflexOverride(reason string) {
	DefaultMetrics.ReflexOverrides.WithLabelValues(reason).Inc()
}

// RecordSelfCheck records a self-check verdict.
func RecordSelfCheck(status string) {
	DefaultMetrics.SelfCheckResults.WithLabelValues(status).Inc()
}

// RecordOutcome records a trade outcome.
func RecordOutcome(outcome string) {
	DefaultMetrics.OutcomesRecorded.WithLabelValues(outcome).Inc()
}

// RecordBlacklisted increments the auto-blacklist counter.
func RecordBlacklisted() {
	DefaultMetrics.TokensBlacklisted.Inc()
}

// RecordDecayRun increments the decay pass counter.
func RecordDecayRun() {
	DefaultMetrics.DecayRunsTotal.Inc()
}

// RecordTrimRun records a trim pass for a store.
func RecordTrimRun(store string, removed int) {
	DefaultMetrics.TrimRunsTotal.WithLabelValues(store).Inc()
	DefaultMetrics.EntriesTrimmed.WithLabelValues(store).Add(float64(removed))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
