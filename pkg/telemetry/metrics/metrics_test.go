package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/basicrules/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "rules",
		DurationBuckets: []float64{0.001, 0.01, 0.1},
	}
}

// TestCollector_NewCollector tests collector creation
func TestCollector_NewCollector(t *testing.T) {
	cfg := &config.MetricsConfig{}
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace || cfg.Subsystem != config.DefaultMetricsSubsystem {
		t.Errorf("Expected default namespace/subsystem, got %q/%q", cfg.Namespace, cfg.Subsystem)
	}

	if NewCollector(testConfig(), nil).Registry() == nil {
		t.Error("Expected a registry to be created")
	}
}

// TestCollector_RecordRule tests rule outcome recording
func TestCollector_RecordRule(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		name    string
		rule    string
		outcome string
		times   int
	}{
		{name: "matched", rule: "discount", outcome: "true", times: 3},
		{name: "not matched", rule: "discount", outcome: "false", times: 1},
		{name: "failed", rule: "ratio", outcome: "error", times: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.times; i++ {
				collector.RecordRule("pricing", tt.rule, tt.outcome)
			}
			got := testutil.ToFloat64(collector.rules.evaluationsTotal.WithLabelValues("pricing", tt.rule, tt.outcome))
			if got != float64(tt.times) {
				t.Errorf("Expected %d evaluations, got %v", tt.times, got)
			}
		})
	}
}

// TestCollector_RecordRuleError tests error kind recording
func TestCollector_RecordRuleError(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordRuleError("pricing", "ratio", "ZeroDivisionError")
	collector.RecordRuleError("pricing", "ratio", "ZeroDivisionError")
	collector.RecordRuleError("pricing", "ratio", "TypeError")

	if got := testutil.ToFloat64(collector.rules.errorsTotal.WithLabelValues("ratio", "ZeroDivisionError")); got != 2 {
		t.Errorf("Expected 2 ZeroDivisionError, got %v", got)
	}
	if got := testutil.ToFloat64(collector.rules.errorsTotal.WithLabelValues("ratio", "TypeError")); got != 1 {
		t.Errorf("Expected 1 TypeError, got %v", got)
	}
}

// TestCollector_Gauges tests loaded rules and reload recording
func TestCollector_Gauges(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.SetRulesLoaded("pricing", 4)
	collector.SetRulesLoaded("pricing", 2)
	if got := testutil.ToFloat64(collector.rules.rulesLoaded.WithLabelValues("pricing")); got != 2 {
		t.Errorf("Expected 2 loaded rules, got %v", got)
	}

	collector.RecordReload(nil)
	collector.RecordReload(errors.New("bad file"))
	collector.RecordReload(errors.New("bad file"))
	if got := testutil.ToFloat64(collector.rules.reloadsTotal.WithLabelValues("failure")); got != 2 {
		t.Errorf("Expected 2 failed reloads, got %v", got)
	}
	if got := testutil.ToFloat64(collector.rules.reloadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("Expected 1 successful reload, got %v", got)
	}
}

// TestCollector_RecordEvaluation tests the duration histogram
func TestCollector_RecordEvaluation(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordEvaluation("pricing", 50*time.Microsecond)
	collector.RecordEvaluation("pricing", 5*time.Millisecond)

	if count := testutil.CollectAndCount(collector.rules.evaluationDuration); count != 1 {
		t.Errorf("Expected 1 histogram series, got %d", count)
	}
}

// TestCollector_Nil tests that a nil collector is a no-op
func TestCollector_Nil(t *testing.T) {
	var collector *Collector

	// These should not panic
	collector.RecordRule("pricing", "discount", "true")
	collector.RecordRuleError("pricing", "discount", "TypeError")
	collector.RecordEvaluation("pricing", time.Millisecond)
	collector.SetRulesLoaded("pricing", 1)
	collector.RecordReload(nil)
}

// TestCollector_CardinalityLimit tests aggregation into the other label
func TestCollector_CardinalityLimit(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.RecordRule("pricing", "first", "true")
	collector.RecordRule("pricing", "second", "true")

	if got := testutil.ToFloat64(collector.rules.evaluationsTotal.WithLabelValues("pricing", OtherRule, "true")); got != 1 {
		t.Errorf("Expected overflow rule under %q, got %v", OtherRule, got)
	}
}

// TestCardinalityLimiter tests cardinality limiting
func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	for _, label := range []string{"label1", "label2", "label3"} {
		if !limiter.Allow(label) {
			t.Errorf("Expected %s to be allowed", label)
		}
	}

	if limiter.Allow("label4") {
		t.Error("Expected fourth label to be rejected")
	}
	if !limiter.Allow("label1") {
		t.Error("Expected existing label to be allowed")
	}
	if limiter.Count() != 3 {
		t.Errorf("Expected count=3, got %d", limiter.Count())
	}
}

// TestCollector_Handler tests the exposition endpoint
func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordRule("pricing", "discount", "true")

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_rules_rule_evaluations_total") {
		t.Errorf("Expected rule counter in output, got:\n%s", rec.Body.String())
	}
}
