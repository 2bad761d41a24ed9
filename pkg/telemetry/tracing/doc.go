// Package tracing provides OpenTelemetry tracing for rule evaluation.
//
// When enabled, the engine opens one span per ruleset evaluation and a child
// span per rule, exported over OTLP gRPC:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(ctx)
//	engine := ruleset.NewEngine(source, ruleset.WithTracer(tracer.Tracer()))
//
// Sampling strategies are "always", "never" and "ratio". A sampled parent
// from an incoming traceparent header is honored, and skip_rule_spans
// keeps only the evaluation span.
package tracing
