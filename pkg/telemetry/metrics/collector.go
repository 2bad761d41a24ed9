package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/basicrules/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OtherRule is the label used once the rule cardinality limit is reached.
const OtherRule = "other"

// Collector owns the registry and the rule metrics recorded by the engine.
// A nil *Collector is valid and records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	rules *RuleMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		rules:              NewRuleMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}
}

// RecordRule records one rule evaluation. Rule names beyond the
// cardinality limit are aggregated under OtherRule.
//
// Example:
//
//	collector.RecordRule("pricing", "discount", "true")
func (c *Collector) RecordRule(ruleset, rule, outcome string) {
	if c == nil {
		return
	}
	c.rules.RecordRule(ruleset, c.limitRule(ruleset, rule), outcome)
}

// RecordRuleError records a failed rule evaluation and its error kind.
func (c *Collector) RecordRuleError(ruleset, rule, kind string) {
	if c == nil {
		return
	}
	c.rules.RecordError(c.limitRule(ruleset, rule), kind)
}

// RecordEvaluation records the duration of a whole-ruleset evaluation.
func (c *Collector) RecordEvaluation(ruleset string, duration time.Duration) {
	if c == nil {
		return
	}
	c.rules.RecordEvaluation(ruleset, duration)
}

// SetRulesLoaded records the number of rules currently loaded.
func (c *Collector) SetRulesLoaded(ruleset string, count int) {
	if c == nil {
		return
	}
	c.rules.SetLoaded(ruleset, count)
}

// RecordReload records a reload attempt.
func (c *Collector) RecordReload(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.rules.RecordReload("failure")
		return
	}
	c.rules.RecordReload("success")
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) limitRule(ruleset, rule string) string {
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s", ruleset, rule)) {
		return OtherRule
	}
	return rule
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

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
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
