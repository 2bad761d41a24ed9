package metrics

import (
	"time"

	"mercator-hq/basicrules/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleMetrics tracks metrics related to rule evaluation.
//
// Metrics:
//   - basicrules_engine_rule_evaluations_total: Rule evaluations by ruleset, rule and outcome
//   - basicrules_engine_evaluation_duration_seconds: Whole-ruleset evaluation duration
//   - basicrules_engine_rule_errors_total: Failed rule evaluations by error kind
//   - basicrules_engine_rules_loaded: Number of rules currently loaded per ruleset
//   - basicrules_engine_reloads_total: Ruleset reload attempts by result
type RuleMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	errorsTotal        *prometheus.CounterVec
	rulesLoaded        *prometheus.GaugeVec
	reloadsTotal       *prometheus.CounterVec
}

// NewRuleMetrics creates and registers rule metrics with the provided registry.
func NewRuleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RuleMetrics {
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		// Rule evaluation is an in-memory tree walk
		buckets = prometheus.ExponentialBuckets(0.000001, 2, 15) // 1µs to 16ms
	}

	rm := &RuleMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_evaluations_total",
				Help:      "Total number of rule evaluations",
			},
			[]string{"ruleset", "rule", "outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of ruleset evaluation in seconds",
				Buckets:   buckets,
			},
			[]string{"ruleset"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_errors_total",
				Help:      "Total number of failed rule evaluations by error kind",
			},
			[]string{"rule", "kind"},
		),

		rulesLoaded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rules_loaded",
				Help:      "Number of rules currently loaded",
			},
			[]string{"ruleset"},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reloads_total",
				Help:      "Total number of ruleset reload attempts",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		rm.evaluationsTotal,
		rm.evaluationDuration,
		rm.errorsTotal,
		rm.rulesLoaded,
		rm.reloadsTotal,
	)

	return rm
}

// RecordRule records one rule evaluation.
//
// Parameters:
//   - ruleset: Ruleset name
//   - rule: Rule name
//   - outcome: "true", "false" or "error"
func (rm *RuleMetrics) RecordRule(ruleset, rule, outcome string) {
	rm.evaluationsTotal.WithLabelValues(ruleset, rule, outcome).Inc()
}

// RecordEvaluation records the duration of a whole-ruleset evaluation.
func (rm *RuleMetrics) RecordEvaluation(ruleset string, duration time.Duration) {
	rm.evaluationDuration.WithLabelValues(ruleset).Observe(duration.Seconds())
}

// RecordError records a failed rule evaluation with its error kind
// (e.g. "TypeError", "ZeroDivisionError").
func (rm *RuleMetrics) RecordError(rule, kind string) {
	rm.errorsTotal.WithLabelValues(rule, kind).Inc()
}

// SetLoaded sets the number of rules loaded for a ruleset.
func (rm *RuleMetrics) SetLoaded(ruleset string, count int) {
	rm.rulesLoaded.WithLabelValues(ruleset).Set(float64(count))
}

// RecordReload records a reload attempt ("success" or "failure").
func (rm *RuleMetrics) RecordReload(result string) {
	rm.reloadsTotal.WithLabelValues(result).Inc()
}
