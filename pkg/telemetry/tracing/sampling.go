package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/basicrules/pkg/config"
)

// Sampling strategies accepted in telemetry.tracing.sampler.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// NewSampler builds the sampler for cfg. The strategy decides for root
// evaluation spans; a caller's sampled parent is honored. With
// SkipRuleSpans set, per-rule spans are never recorded.
func NewSampler(cfg *config.TracingConfig) (sdktrace.Sampler, error) {
	var root sdktrace.Sampler
	switch cfg.Sampler {
	case SamplerAlways, "":
		root = sdktrace.AlwaysSample()
	case SamplerNever:
		root = sdktrace.NeverSample()
	case SamplerRatio:
		if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %g", cfg.SampleRatio)
		}
		root = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	default:
		return nil, fmt.Errorf("unknown sampler %q (valid: always, never, ratio)", cfg.Sampler)
	}

	sampler := sdktrace.ParentBased(root)
	if cfg.SkipRuleSpans {
		return ruleSpanFilter{next: sampler}, nil
	}
	return sampler, nil
}

// ruleSpanFilter drops rule spans and defers every other decision.
type ruleSpanFilter struct {
	next sdktrace.Sampler
}

func (f ruleSpanFilter) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if p.Name == SpanRule {
		return sdktrace.SamplingResult{
			Decision:   sdktrace.Drop,
			Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
		}
	}
	return f.next.ShouldSample(p)
}

func (f ruleSpanFilter) Description() string {
	return "RuleSpanFilter{" + f.next.Description() + "}"
}
