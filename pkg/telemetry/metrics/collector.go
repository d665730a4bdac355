package metrics

import (
	"fmt"
	"sync"
	"time"

	"getgsa/onboarding/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric of the service. A nil *Collector
// and a collector built from a disabled config both accept every Record
// call and do nothing, so callers never need to check.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	httpMetrics      *HTTPMetrics
	analysisMetrics  *AnalysisMetrics
	ruleMetrics      *RuleMetrics
	assistantMetrics *AssistantMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics with registry.
// A fresh registry is used when registry is nil.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle("/metrics", collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "getgsa"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "onboarding"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// HTTP requests and analyses (5ms - 30s; analyses may wait on the assistant)
		cfg.RequestDurationBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
	c.httpMetrics = NewHTTPMetrics(cfg, registry)
	c.analysisMetrics = NewAnalysisMetrics(cfg, registry)
	c.ruleMetrics = NewRuleMetrics(cfg, registry)
	c.assistantMetrics = NewAssistantMetrics(cfg, registry)
	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordHTTPRequest records a served HTTP request. Unknown routes beyond
// the cardinality limit are folded into "other".
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("http:%s:%s", route, method)) {
		route = "other"
	}
	c.httpMetrics.RecordRequest(route, method, status, duration)
}

// RecordRateLimited records a request rejected by the rate limiter.
func (c *Collector) RecordRateLimited() {
	if !c.enabled() {
		return
	}
	c.httpMetrics.RecordRateLimited()
}

// RecordIngest records an ingested document request: how many documents it
// held and how many PII values of each type were redacted.
func (c *Collector) RecordIngest(documents int, piiCounts map[string]int) {
	if !c.enabled() {
		return
	}
	c.analysisMetrics.RecordIngest(documents, piiCounts)
}

// RecordAnalysis records a finished analysis with its status ("processed"
// or "error") and duration.
func (c *Collector) RecordAnalysis(status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.analysisMetrics.RecordAnalysis(status, duration)
}

// RecordVerdict records the overall outcome of an evaluation.
func (c *Collector) RecordVerdict(requiredOK, degraded bool) {
	if !c.enabled() {
		return
	}
	c.analysisMetrics.RecordVerdict(requiredOK, degraded)
}

// RecordRuleOutcome records the status of one rule finding.
func (c *Collector) RecordRuleOutcome(ruleID, status string) {
	if !c.enabled() {
		return
	}
	c.ruleMetrics.RecordOutcome(ruleID, status)
}

// RecordAbstention records one abstained problem with its reason.
func (c *Collector) RecordAbstention(ruleID, reason string) {
	if !c.enabled() {
		return
	}
	c.ruleMetrics.RecordAbstention(ruleID, reason)
}

// RecordPackReload records a rule pack reload attempt.
func (c *Collector) RecordPackReload(version string, err error) {
	if !c.enabled() {
		return
	}
	c.ruleMetrics.RecordReload(version, err)
}

// RecordAssistantCall records a call to an AI collaborator ("extractor" or
// "prose") with its outcome ("success", "error" or "fallback").
func (c *Collector) RecordAssistantCall(collaborator, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.assistantMetrics.RecordCall(collaborator, outcome, duration)
}

// RecordAssistantError records a collaborator error by type (e.g.
// "rate_limit", "timeout", "invalid_response").
func (c *Collector) RecordAssistantError(collaborator, errorType string) {
	if !c.enabled() {
		return
	}
	c.assistantMetrics.RecordError(collaborator, errorType)
}

// RecordRetentionPruned records requests removed by the retention job.
func (c *Collector) RecordRetentionPruned(count int64) {
	if !c.enabled() {
		return
	}
	c.analysisMetrics.RecordPruned(count)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet may be used: it is already known or the
// limit has not been reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
