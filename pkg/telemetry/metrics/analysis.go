package metrics

import (
	"strconv"
	"time"

	"getgsa/onboarding/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AnalysisMetrics tracks the ingest and analysis pipeline.
//
// Metrics:
//   - getgsa_onboarding_ingested_documents_total: documents accepted by ingest
//   - getgsa_onboarding_pii_redactions_total: PII values redacted, by type
//   - getgsa_onboarding_analyses_total: analyses by status
//   - getgsa_onboarding_analysis_duration_seconds: analysis duration
//   - getgsa_onboarding_verdicts_total: verdicts by required_ok and degraded
//   - getgsa_onboarding_retention_pruned_total: requests deleted by retention
type AnalysisMetrics struct {
	documentsTotal   prometheus.Counter
	redactionsTotal  *prometheus.CounterVec
	analysesTotal    *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	verdictsTotal    *prometheus.CounterVec
	prunedTotal      prometheus.Counter
}

// NewAnalysisMetrics creates and registers pipeline metrics.
func NewAnalysisMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AnalysisMetrics {
	am := &AnalysisMetrics{
		documentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ingested_documents_total",
			Help:      "Total number of documents accepted by ingest",
		}),
		redactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "pii_redactions_total",
			Help:      "Total number of PII values redacted from documents",
		}, []string{"type"}),
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "analyses_total",
			Help:      "Total number of analyses by status",
		}, []string{"status"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of analyses in seconds",
			Buckets:   cfg.RequestDurationBuckets,
		}),
		verdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "verdicts_total",
			Help:      "Total number of compliance verdicts",
		}, []string{"required_ok", "degraded"}),
		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "retention_pruned_total",
			Help:      "Total number of document requests deleted by retention",
		}),
	}

	registry.MustRegister(
		am.documentsTotal,
		am.redactionsTotal,
		am.analysesTotal,
		am.analysisDuration,
		am.verdictsTotal,
		am.prunedTotal,
	)
	return am
}

// RecordIngest records one ingest.
func (am *AnalysisMetrics) RecordIngest(documents int, piiCounts map[string]int) {
	am.documentsTotal.Add(float64(documents))
	for kind, n := range piiCounts {
		am.redactionsTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordAnalysis records one finished analysis.
func (am *AnalysisMetrics) RecordAnalysis(status string, duration time.Duration) {
	am.analysesTotal.WithLabelValues(status).Inc()
	am.analysisDuration.Observe(duration.Seconds())
}

// RecordVerdict records one verdict.
func (am *AnalysisMetrics) RecordVerdict(requiredOK, degraded bool) {
	am.verdictsTotal.WithLabelValues(strconv.FormatBool(requiredOK), strconv.FormatBool(degraded)).Inc()
}

// RecordPruned records deleted requests.
func (am *AnalysisMetrics) RecordPruned(count int64) {
	am.prunedTotal.Add(float64(count))
}
