// Package telemetry groups the observability packages of basicrules.
//
//   - logging: slog loggers carrying evaluation fields from the context
//   - metrics: Prometheus rule evaluation metrics
//   - tracing: OpenTelemetry evaluation spans
//   - health: liveness and readiness probes for watch mode
package telemetry
