package metrics

import (
	"getgsa/onboarding/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleMetrics tracks rule evaluation outcomes and rule pack reloads.
//
// Metrics:
//   - getgsa_onboarding_rule_outcomes_total: findings by rule id and status
//   - getgsa_onboarding_rule_abstentions_total: abstained problems by rule id and reason
//   - getgsa_onboarding_rule_pack_reloads_total: reload attempts by result
//   - getgsa_onboarding_rule_pack_info: 1 for the active pack version
type RuleMetrics struct {
	outcomesTotal    *prometheus.CounterVec
	abstentionsTotal *prometheus.CounterVec
	reloadsTotal     *prometheus.CounterVec
	packInfo         *prometheus.GaugeVec
}

// NewRuleMetrics creates and registers rule metrics.
func NewRuleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuleMetrics {
	rm := &RuleMetrics{
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rule_outcomes_total",
			Help:      "Total number of rule findings by status",
		}, []string{"rule_id", "status"}),
		abstentionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rule_abstentions_total",
			Help:      "Total number of abstained problems by reason",
		}, []string{"rule_id", "reason"}),
		reloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rule_pack_reloads_total",
			Help:      "Total number of rule pack reload attempts",
		}, []string{"result"}),
		packInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "rule_pack_info",
			Help:      "Version of the active rule pack",
		}, []string{"version"}),
	}

	registry.MustRegister(rm.outcomesTotal, rm.abstentionsTotal, rm.reloadsTotal, rm.packInfo)
	return rm
}

// RecordOutcome records one finding.
func (rm *RuleMetrics) RecordOutcome(ruleID, status string) {
	rm.outcomesTotal.WithLabelValues(ruleID, status).Inc()
}

// RecordAbstention records one abstained problem.
func (rm *RuleMetrics) RecordAbstention(ruleID, reason string) {
	rm.abstentionsTotal.WithLabelValues(ruleID, reason).Inc()
}

// RecordReload records a reload attempt. On success the pack info gauge
// switches to version.
func (rm *RuleMetrics) RecordReload(version string, err error) {
	if err != nil {
		rm.reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	rm.reloadsTotal.WithLabelValues("success").Inc()
	rm.packInfo.Reset()
	rm.packInfo.WithLabelValues(version).Set(1)
}
