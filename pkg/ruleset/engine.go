package ruleset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/basicrules/pkg/rules"
	"mercator-hq/basicrules/pkg/telemetry/logging"
	"mercator-hq/basicrules/pkg/telemetry/metrics"
	"mercator-hq/basicrules/pkg/telemetry/tracing"
)

// Engine evaluates the current ruleset of a Source. The ruleset is swapped
// atomically on reload, so evaluations never observe a partial update and
// a failed reload keeps the previous ruleset in service.
type Engine struct {
	source  Source
	current atomic.Pointer[Ruleset]

	logger      *slog.Logger
	metrics     *metrics.Collector
	tracer      trace.Tracer
	stopOnError bool
	newID       func() string

	// reloadMu serializes loads
	reloadMu sync.Mutex

	statusMu      sync.RWMutex
	lastLoadTime  time.Time
	lastLoadError error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records evaluation metrics on the collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = collector }
}

// WithTracer opens a span per evaluation and per rule.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithStopOnError stops an evaluation at the first failing rule.
func WithStopOnError(stop bool) Option {
	return func(e *Engine) { e.stopOnError = stop }
}

// NewEngine creates an engine for source. No ruleset is loaded until Load
// or Reload is called.
func NewEngine(source Source, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer(tracing.InstrumentationName),
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load loads the initial ruleset. It is equivalent to Reload.
func (e *Engine) Load(ctx context.Context) error {
	return e.Reload(ctx)
}

// Reload loads a fresh ruleset from the source and swaps it in. On failure
// the previous ruleset, if any, stays in service and the error is returned.
func (e *Engine) Reload(ctx context.Context) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	start := time.Now()
	set, err := e.source.Load(ctx)
	if err == nil && set == nil {
		err = ErrNoRuleset
	}

	e.statusMu.Lock()
	e.lastLoadError = err
	if err == nil {
		e.lastLoadTime = time.Now()
	}
	e.statusMu.Unlock()
	e.metrics.RecordReload(err)

	if err != nil {
		if e.current.Load() != nil {
			e.logger.ErrorContext(ctx, "Failed to reload rules, keeping previous ruleset",
				"error", err,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		} else {
			e.logger.ErrorContext(ctx, "Failed to load rules",
				"error", err,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
		return err
	}

	e.current.Store(set)
	e.metrics.SetRulesLoaded(set.Name(), set.Len())
	e.logger.InfoContext(ctx, "Rules loaded",
		"ruleset", set.Name(),
		"count", set.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Ruleset returns the ruleset currently in service, or nil.
func (e *Engine) Ruleset() *Ruleset {
	return e.current.Load()
}

// LastLoad returns the time of the last successful load and the error of
// the last load attempt.
func (e *Engine) LastLoad() (time.Time, error) {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.lastLoadTime, e.lastLoadError
}

// Ready reports whether a ruleset is in service and the last load succeeded.
// It matches the health.CheckFunc signature.
func (e *Engine) Ready(ctx context.Context) error {
	if e.current.Load() == nil {
		return ErrNoRuleset
	}
	if _, err := e.LastLoad(); err != nil {
		return fmt.Errorf("serving previous ruleset, last reload failed: %w", err)
	}
	return nil
}

// Evaluate evaluates every rule of the current ruleset against data, in
// definition order. Rule failures are recorded in the report; the returned
// error is only set when no ruleset is loaded or ctx is done.
func (e *Engine) Evaluate(ctx context.Context, data any) (*Report, error) {
	set := e.current.Load()
	if set == nil {
		return nil, ErrNoRuleset
	}

	report := &Report{
		ID:      e.newID(),
		Ruleset: set.Name(),
		Results: make([]RuleResult, 0, set.Len()),
		Started: time.Now(),
	}

	ctx = logging.WithEvaluationID(ctx, report.ID)
	ctx = logging.WithRuleset(ctx, set.Name())
	ctx, span := tracing.StartEvaluation(ctx, e.tracer, set.Name(), report.ID, set.Len())
	if traceID := tracing.TraceID(ctx); traceID != "" {
		ctx = logging.WithTraceID(ctx, traceID)
	}

	for _, r := range set.rules {
		if err := ctx.Err(); err != nil {
			tracing.EndEvaluation(span, err)
			return nil, err
		}

		res := e.evaluateRule(ctx, set.Name(), r, data)
		report.Results = append(report.Results, res)

		if res.Outcome == OutcomeError && e.stopOnError {
			report.Stopped = true
			break
		}
	}

	report.Duration = time.Since(report.Started)
	e.metrics.RecordEvaluation(set.Name(), report.Duration)
	tracing.EndEvaluation(span, nil)

	e.logger.DebugContext(ctx, "Ruleset evaluated",
		"rules", len(report.Results),
		"matched", len(report.Matched()),
		"failed", len(report.Failed()),
		"duration_us", report.Duration.Microseconds(),
	)
	return report, nil
}

// EvaluateRule evaluates a single named rule of the current ruleset.
func (e *Engine) EvaluateRule(ctx context.Context, name string, data any) (RuleResult, error) {
	set := e.current.Load()
	if set == nil {
		return RuleResult{}, ErrNoRuleset
	}
	r, ok := set.Get(name)
	if !ok {
		return RuleResult{}, fmt.Errorf("%w: %q", ErrRuleNotFound, name)
	}
	ctx = logging.WithRuleset(ctx, set.Name())
	return e.evaluateRule(ctx, set.Name(), r, data), nil
}

func (e *Engine) evaluateRule(ctx context.Context, setName string, r *Rule, data any) RuleResult {
	ctx = logging.WithRule(ctx, r.Name)
	_, span := tracing.StartRule(ctx, e.tracer, r.Name)

	start := time.Now()
	result := r.Expression.Try(data)
	value, err := result.Value, result.Err
	res := newRuleResult(r.Name, value, err, time.Since(start))

	e.metrics.RecordRule(setName, r.Name, string(res.Outcome))
	tracing.EndRule(span, string(res.Outcome), res.Kind, err)

	if err != nil {
		e.metrics.RecordRuleError(setName, r.Name, res.Kind)
		e.logger.WarnContext(ctx, "Rule evaluation failed",
			"error_kind", res.Kind,
			"error", err,
		)
		return res
	}

	e.logger.DebugContext(ctx, "Rule evaluated",
		"outcome", string(res.Outcome),
		"value", rules.FormatValue(value),
	)
	return res
}

// RuleDebug is the debug rendering of one rule.
type RuleDebug struct {
	Rule   string `json:"rule"`
	Result string `json:"result"`
	Trace  string `json:"trace"`
}

// Debug renders every rule of the current ruleset against data with each
// node's result. It never reports rule failures as errors.
func (e *Engine) Debug(data any) ([]RuleDebug, error) {
	set := e.current.Load()
	if set == nil {
		return nil, ErrNoRuleset
	}
	out := make([]RuleDebug, 0, set.Len())
	for _, r := range set.rules {
		out = append(out, RuleDebug{
			Rule:   r.Name,
			Result: r.Expression.Try(data).String(),
			Trace:  r.Expression.Debug(data),
		})
	}
	return out, nil
}

// Watch reloads the engine whenever the watcher reports a change. It blocks
// until ctx is done or the watcher stops.
func (e *Engine) Watch(ctx context.Context, watcher *FileWatcher) error {
	return watcher.Watch(ctx, func() error {
		return e.Reload(ctx)
	})
}
