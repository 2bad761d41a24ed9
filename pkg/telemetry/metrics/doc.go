// Package metrics provides Prometheus metrics for rule evaluation.
//
// The Collector records per-rule outcomes, error kinds, whole-ruleset
// evaluation latency, the number of loaded rules and reload attempts:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	engine := ruleset.NewEngine(source, ruleset.WithMetrics(collector))
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Rule names are bounded by a CardinalityLimiter; once the limit is reached
// new rules are recorded under the "other" label.
package metrics
