package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/basicrules/pkg/config"
	"mercator-hq/basicrules/pkg/rules"
	"mercator-hq/basicrules/pkg/ruleset"
	"mercator-hq/basicrules/pkg/server/middleware"
	"mercator-hq/basicrules/pkg/telemetry/health"
	"mercator-hq/basicrules/pkg/telemetry/logging"
)

func newTestConfig() *config.ServerConfig {
	cfg := config.NewDefault().Server
	cfg.ListenAddress = "127.0.0.1:0"
	return &cfg
}

func newTestEngine(t *testing.T) *ruleset.Engine {
	t.Helper()
	set, err := ruleset.New("pricing",
		&ruleset.Rule{Name: "discount", Expression: rules.Gte(rules.Param("cart.total"), 100)},
		&ruleset.Rule{Name: "ratio", Expression: rules.Divide(rules.Param("cart.total"), rules.Param("cart.items"))},
	)
	if err != nil {
		t.Fatalf("ruleset.New() error = %v", err)
	}
	engine := ruleset.NewEngine(ruleset.StaticSource(set), ruleset.WithLogger(logging.NewNop()))
	if err := engine.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return engine
}

func newTestServer(t *testing.T, engine Evaluator, opts ...Option) http.Handler {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNop())}, opts...)
	return NewServer(newTestConfig(), engine, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, r))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return v
}

func TestHandleEvaluate(t *testing.T) {
	h := newTestServer(t, newTestEngine(t))

	w := do(t, h, http.MethodPost, "/v1/evaluate", `{"data": {"cart": {"total": 120, "items": 0}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected request ID header")
	}

	report := decode[struct {
		ID      string `json:"id"`
		Ruleset string `json:"ruleset"`
		Results []struct {
			Rule    string `json:"rule"`
			Outcome string `json:"outcome"`
			Kind    string `json:"error_kind"`
		} `json:"results"`
	}](t, w)

	if report.Ruleset != "pricing" || report.ID == "" {
		t.Errorf("unexpected report header %+v", report)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	if report.Results[0].Outcome != "true" {
		t.Errorf("discount outcome = %q", report.Results[0].Outcome)
	}
	if report.Results[1].Kind != "ZeroDivisionError" {
		t.Errorf("ratio error kind = %q", report.Results[1].Kind)
	}
}

func TestHandleEvaluate_SingleRule(t *testing.T) {
	h := newTestServer(t, newTestEngine(t))

	w := do(t, h, http.MethodPost, "/v1/evaluate", `{"rule": "ratio", "data": {"cart": {"total": 9, "items": 2}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[map[string]any](t, w)
	// integer division truncates
	if res["value"] != float64(4) || res["outcome"] != "true" {
		t.Errorf("unexpected result %v", res)
	}
}

func TestHandleEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		engine     func(t *testing.T) Evaluator
		body       string
		wantStatus int
		wantType   string
	}{
		{
			name:       "invalid JSON",
			body:       `{"data": `,
			wantStatus: http.StatusBadRequest,
			wantType:   middleware.ErrorTypeInvalidRequest,
		},
		{
			name:       "body is not an object",
			body:       `[1, 2]`,
			wantStatus: http.StatusBadRequest,
			wantType:   middleware.ErrorTypeInvalidRequest,
		},
		{
			name:       "rule is not a string",
			body:       `{"rule": 3}`,
			wantStatus: http.StatusBadRequest,
			wantType:   middleware.ErrorTypeInvalidRequest,
		},
		{
			name:       "unknown rule",
			body:       `{"rule": "missing"}`,
			wantStatus: http.StatusNotFound,
			wantType:   middleware.ErrorTypeNotFound,
		},
		{
			name: "no ruleset loaded",
			engine: func(t *testing.T) Evaluator {
				return ruleset.NewEngine(ruleset.StaticSource(nil), ruleset.WithLogger(logging.NewNop()))
			},
			body:       `{}`,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   middleware.ErrorTypeServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var engine Evaluator
			if tt.engine != nil {
				engine = tt.engine(t)
			} else {
				engine = newTestEngine(t)
			}

			w := do(t, newTestServer(t, engine), http.MethodPost, "/v1/evaluate", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			resp := decode[middleware.ErrorResponse](t, w)
			if resp.Error.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", resp.Error.Type, tt.wantType)
			}
		})
	}
}

func TestHandleEvaluate_BodyLimit(t *testing.T) {
	cfg := newTestConfig()
	cfg.MaxBodyBytes = 16
	h := NewServer(cfg, newTestEngine(t), WithLogger(logging.NewNop())).Handler()

	w := do(t, h, http.MethodPost, "/v1/evaluate", `{"data": {"cart": {"total": 120}}}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestHandleEvaluate_MethodNotAllowed(t *testing.T) {
	w := do(t, newTestServer(t, newTestEngine(t)), http.MethodGet, "/v1/evaluate", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandleDebug(t *testing.T) {
	w := do(t, newTestServer(t, newTestEngine(t)), http.MethodPost, "/v1/debug", `{"data": {"cart": {"total": 50, "items": 0}}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	resp := decode[DebugResponse](t, w)
	if resp.Ruleset != "pricing" || len(resp.Rules) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	want := "<gte(<param(cart.total)=50>, 100)=False>"
	if resp.Rules[0].Trace != want {
		t.Errorf("trace = %q, want %q", resp.Rules[0].Trace, want)
	}
	if resp.Rules[1].Result != "ZeroDivisionError" {
		t.Errorf("result = %q", resp.Rules[1].Result)
	}
}

func TestHandleRules(t *testing.T) {
	w := do(t, newTestServer(t, newTestEngine(t)), http.MethodGet, "/v1/rules", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	set, err := ruleset.Decode(w.Body.Bytes(), ruleset.FormatJSON, nil)
	if err != nil {
		t.Fatalf("rules response does not decode: %v", err)
	}
	if set.Name() != "pricing" || set.Len() != 2 {
		t.Errorf("unexpected ruleset %q with %d rules", set.Name(), set.Len())
	}
}

func TestHandleExpression(t *testing.T) {
	h := newTestServer(t, newTestEngine(t))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		want       ExpressionResult
	}{
		{
			name:       "value",
			body:       `{"expression": {"add": [{"param": ["a"]}, 2]}, "data": {"a": 1}}`,
			wantStatus: http.StatusOK,
			want:       ExpressionResult{Expression: "add(param(a), 2)", Value: float64(3)},
		},
		{
			name:       "evaluation error",
			body:       `{"expression": {"divide": [1, 0]}, "debug": true}`,
			wantStatus: http.StatusOK,
			want: ExpressionResult{
				Expression: "divide(1, 0)",
				Error:      "divide: division by zero",
				Kind:       "ZeroDivisionError",
				Debug:      "<divide(1, 0)=ZeroDivisionError>",
			},
		},
		{
			name:       "arity error",
			body:       `{"expression": {"not": [1, 2]}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing expression",
			body:       `{"data": {}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "infinite result",
			body:       `{"expression": {"multiply": [1e308, 10]}}`,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/expressions/evaluate", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			got := decode[ExpressionResult](t, w)
			if got.Expression != tt.want.Expression || got.Value != tt.want.Value ||
				got.Kind != tt.want.Kind || got.Debug != tt.want.Debug {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if tt.want.Error != "" && !strings.Contains(got.Error, "division by zero") {
				t.Errorf("error = %q", got.Error)
			}
		})
	}
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, EvaluateExpression(rules.Multiply(1e308, 10.0), nil, false))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	resp := decode[middleware.ErrorResponse](t, w)
	if resp.Error.Type != middleware.ErrorTypeServerError || resp.Error.Message == "" {
		t.Errorf("unexpected error body: %+v", resp)
	}
}

func TestHealthAndMetricsMounts(t *testing.T) {
	engine := newTestEngine(t)
	checker := health.New(time.Second)
	checker.RegisterCheck("ruleset", engine.Ready)

	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "metrics")
	})

	h := newTestServer(t, engine,
		WithHealth(checker, health.VersionInfo{Version: "1.2.3"}),
		WithMetricsHandler("/metrics", metricsHandler),
	)

	if w := do(t, h, http.MethodGet, "/ready", ""); w.Code != http.StatusOK {
		t.Errorf("/ready status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := do(t, h, http.MethodGet, "/version", ""); !strings.Contains(w.Body.String(), "1.2.3") {
		t.Errorf("/version body = %s", w.Body.String())
	}
	if w := do(t, h, http.MethodGet, "/metrics", ""); w.Body.String() != "metrics" {
		t.Errorf("/metrics body = %s", w.Body.String())
	}
}

func TestHandler_AccessLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}
	h := newTestServer(t, newTestEngine(t), WithLogger(logger))

	req := httptest.NewRequest(http.MethodGet, "/v1/rules", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Errorf("access log missing request ID:\n%s", buf.String())
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	srv := NewServer(newTestConfig(), newTestEngine(t), WithLogger(logging.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/v1/evaluate"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Post(url, "application/json", strings.NewReader(`{"data": {"cart": {"total": 1, "items": 1}}}`))
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !srv.IsRunning() {
		t.Error("expected server to be running")
	}

	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	if err := srv.Serve(ctx, ln2); err == nil {
		t.Error("expected error when serving twice")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("expected server to be stopped")
	}

	if _, err := http.Post(url, "application/json", nil); err == nil {
		t.Error("expected connection error after shutdown")
	}
}
