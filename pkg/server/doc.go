// Package server provides the HTTP evaluation service for basicrules.
//
// The server exposes the engine's current ruleset over JSON:
//
//	POST /v1/evaluate              evaluate every rule, or one named rule
//	POST /v1/debug                 debug traces of every rule
//	GET  /v1/rules                 the loaded ruleset in its document form
//	POST /v1/expressions/evaluate  evaluate an ad-hoc expression tree
//
// Request bodies are JSON objects. Evaluation input goes in "data":
//
//	curl -X POST localhost:8080/v1/evaluate \
//	  -d '{"data": {"cart": {"total": 120}, "user": {"member": true}}}'
//
// Ad-hoc expressions use the node representation:
//
//	curl -X POST localhost:8080/v1/expressions/evaluate \
//	  -d '{"expression": {"add": [{"param": ["a"]}, 2]}, "data": {"a": 1}}'
//
// Rule failures are part of a successful response. Transport-level errors
// use a JSON error body:
//
//	{"error": {"type": "service_unavailable", "message": "no ruleset loaded"}}
//
// Health probes and the metrics endpoint are mounted with WithHealth and
// WithMetricsHandler. The middleware chain (recovery, logging, request ID,
// timeout, body limit) lives in the middleware subpackage.
package server
