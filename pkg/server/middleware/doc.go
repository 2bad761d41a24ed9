// Package middleware provides the HTTP middleware chain of the evaluation
// service: request IDs, W3C trace context, structured request logging,
// panic recovery, per-request timeouts and request body limits.
//
// Middleware is applied outermost-last. Request ID and trace context come
// first so logging and recovery can report them:
//
//	var handler http.Handler = mux
//	handler = middleware.BodyLimitMiddleware(1 << 20)(handler)
//	handler = middleware.TimeoutMiddleware(5 * time.Second)(handler)
//	handler = middleware.RecoveryMiddleware(logger)(handler)
//	handler = middleware.LoggingMiddleware(logger)(handler)
//	handler = middleware.TraceContextMiddleware(handler)
//	handler = middleware.RequestIDMiddleware(handler)
package middleware
