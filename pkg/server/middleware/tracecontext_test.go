package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextMiddleware(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var sc trace.SpanContext
	wrapped := TraceContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc = trace.SpanContextFromContext(r.Context())
	}))

	tests := []struct {
		name        string
		traceparent string
		wantTraceID string
	}{
		{
			name:        "valid traceparent",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			wantTraceID: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{name: "no header"},
		{name: "malformed header", traceparent: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc = trace.SpanContext{}
			req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", nil)
			if tt.traceparent != "" {
				req.Header.Set("traceparent", tt.traceparent)
			}
			wrapped.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantTraceID == "" {
				if sc.IsValid() {
					t.Errorf("expected no remote span context, got %s", sc.TraceID())
				}
				return
			}
			if !sc.IsRemote() || sc.TraceID().String() != tt.wantTraceID {
				t.Errorf("trace ID = %s (remote %v), want %s", sc.TraceID(), sc.IsRemote(), tt.wantTraceID)
			}
		})
	}
}
