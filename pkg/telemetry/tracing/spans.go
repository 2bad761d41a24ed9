package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanEvaluate = "ruleset.evaluate"
	SpanRule     = "rule.evaluate"
)

// Attribute keys set on evaluation spans.
const (
	AttrRuleset      = "basicrules.ruleset"
	AttrEvaluationID = "basicrules.evaluation_id"
	AttrRuleCount    = "basicrules.rule_count"
	AttrRule         = "basicrules.rule"
	AttrOutcome      = "basicrules.outcome"
	AttrErrorKind    = "basicrules.error_kind"
)

// StartEvaluation opens the span of a whole-ruleset evaluation.
func StartEvaluation(ctx context.Context, tracer trace.Tracer, ruleset, evaluationID string, ruleCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanEvaluate,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(AttrRuleset, ruleset),
			attribute.String(AttrEvaluationID, evaluationID),
			attribute.Int(AttrRuleCount, ruleCount),
		),
	)
}

// EndEvaluation sets the span status from err and ends the span. A
// failing rule does not fail the evaluation; only cancellation does.
func EndEvaluation(span trace.Span, err error) {
	setStatus(span, err)
	span.End()
}

// StartRule opens a child span for one rule.
func StartRule(ctx context.Context, tracer trace.Tracer, rule string) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanRule, trace.WithAttributes(attribute.String(AttrRule, rule)))
}

// EndRule records the rule outcome and ends the span. errorKind is only
// recorded when non-empty; err becomes an exception event.
func EndRule(span trace.Span, outcome, errorKind string, err error) {
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
	if errorKind != "" {
		span.SetAttributes(attribute.String(AttrErrorKind, errorKind))
	}
	if err != nil {
		span.RecordError(err)
	}
	setStatus(span, err)
	span.End()
}

func setStatus(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
