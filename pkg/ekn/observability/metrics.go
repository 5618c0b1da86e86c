// Package observability exposes the pipeline's Prometheus metrics, a thin
// OpenTelemetry tracing helper, and the /healthz and /metrics HTTP endpoints
// the orchestrator's control-plane listener serves (internal/config's
// Server.HealthPort/MetricsPort).
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "enliterator"

var (
	itemsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_ingested_total",
		Help:      "Total ingest items persisted by the intake stage.",
	})

	itemsQuarantinedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_quarantined_total",
		Help:      "Total ingest items quarantined for failing rights confidence.",
	})

	stageRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stage_runs_total",
		Help:      "Total stage job executions by stage and outcome.",
	}, []string{"stage", "outcome"})

	stageDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall-clock duration of a single stage job execution.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	rightsDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rights_decisions_total",
		Help:      "Total rights policy evaluations by decision outcome.",
	}, []string{"decision"})

	embeddingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embeddings_created_total",
		Help:      "Total pool-entity embeddings written to the vector index.",
	})

	graphIntegrityFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "graph_integrity_failures_total",
		Help:      "Total graph assembly runs that failed VerifyIntegrity.",
	})

	notificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total retry-exhausted failure notifications sent, by channel.",
	}, []string{"channel"})

	activeRunsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_pipeline_runs",
		Help:      "Pipeline runs currently not in a terminal state.",
	})

	literacyScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "batch_literacy_score",
		Help:      "Most recently computed literacy score for a batch.",
	}, []string{"batch_id"})
)

// RecordItemIngested increments the intake counter once per discovered
// document (pkg/ekn/stages.IntakeJob).
func RecordItemIngested() {
	itemsIngestedTotal.Inc()
}

// RecordItemQuarantined increments the quarantine counter once per item the
// rights stage routes away from downstream pools (pkg/ekn/stages.RightsJob).
func RecordItemQuarantined() {
	itemsQuarantinedTotal.Inc()
}

// RecordStageRun mirrors the func(stage runner.Stage, outcome string,
// duration time.Duration) shape runner.WithMetricsRecorder expects, with the
// stage as a string; callers wrap it and pass stage.String() since this
// package does not import pkg/ekn/runner.
func RecordStageRun(stage, outcome string, duration time.Duration) {
	stageRunsTotal.WithLabelValues(stage, outcome).Inc()
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRightsDecision increments the rights-policy counter. decision is
// one of "trainable", "publishable", "both", or "denied"
// (pkg/ekn/rights.Decision).
func RecordRightsDecision(decision string) {
	rightsDecisionsTotal.WithLabelValues(decision).Inc()
}

// RecordEmbeddingCreated increments the embeddings counter once per entity
// encoded and stored (pkg/ekn/stages.EmbeddingsJob).
func RecordEmbeddingCreated() {
	embeddingsCreatedTotal.Inc()
}

// RecordGraphIntegrityFailure increments the integrity-failure counter
// (pkg/ekn/stages.GraphAssemblyJob's VerifyIntegrity gate).
func RecordGraphIntegrityFailure() {
	graphIntegrityFailuresTotal.Inc()
}

// RecordNotificationSent increments the notification counter; channel names
// the transport, e.g. "slack" (pkg/ekn/notify.SlackNotifier).
func RecordNotificationSent(channel string) {
	notificationsSentTotal.WithLabelValues(channel).Inc()
}

// IncrementActiveRuns and DecrementActiveRuns track runs currently not in a
// terminal state, for alerting on stuck fleets.
func IncrementActiveRuns() { activeRunsGauge.Inc() }
func DecrementActiveRuns() { activeRunsGauge.Dec() }

// SetLiteracyScore records the most recent literacy score computed for a
// batch (pkg/ekn/stages.ScoringJob).
func SetLiteracyScore(batchID int64, score float64) {
	literacyScore.WithLabelValues(strconv.FormatInt(batchID, 10)).Set(score)
}

// Timer measures the duration of a single operation and records it against
// the stage histogram on completion, mirroring the ad hoc stopwatch calls a
// controller loop makes around job.Run.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the duration since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// RecordStage reports the elapsed duration as a completed stage run.
func (t *Timer) RecordStage(stage string) {
	RecordStageRun(stage, "completed", t.Elapsed())
}
