package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// EvaluationIDKey is the context key for evaluation IDs.
	EvaluationIDKey contextKey = "evaluation_id"

	// RulesetKey is the context key for ruleset names.
	RulesetKey contextKey = "ruleset"

	// RuleKey is the context key for rule names.
	RuleKey contextKey = "rule"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"
)

// WithEvaluationID adds an evaluation ID to the context.
func WithEvaluationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, EvaluationIDKey, id)
}

// GetEvaluationID retrieves the evaluation ID from the context.
func GetEvaluationID(ctx context.Context) string {
	return getString(ctx, EvaluationIDKey)
}

// WithRuleset adds a ruleset name to the context.
func WithRuleset(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, RulesetKey, name)
}

// GetRuleset retrieves the ruleset name from the context.
func GetRuleset(ctx context.Context) string {
	return getString(ctx, RulesetKey)
}

// WithRule adds a rule name to the context.
func WithRule(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, RuleKey, name)
}

// GetRule retrieves the rule name from the context.
func GetRule(ctx context.Context) string {
	return getString(ctx, RuleKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts the stored fields in a stable order.
func extractContextFields(ctx context.Context) []slog.Attr {
	var fields []slog.Attr
	for _, key := range []contextKey{EvaluationIDKey, RulesetKey, RuleKey, TraceIDKey} {
		if v := getString(ctx, key); v != "" {
			fields = append(fields, slog.String(string(key), v))
		}
	}
	return fields
}
