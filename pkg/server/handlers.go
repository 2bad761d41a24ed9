package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/basicrules/pkg/rules"
	"mercator-hq/basicrules/pkg/ruleset"
	"mercator-hq/basicrules/pkg/server/middleware"
)

// DebugResponse is the body of POST /v1/debug.
type DebugResponse struct {
	Ruleset string              `json:"ruleset"`
	Rules   []ruleset.RuleDebug `json:"rules"`
}

// ExpressionResult is the body of POST /v1/expressions/evaluate.
type ExpressionResult struct {
	Expression string `json:"expression"`
	Value      any    `json:"value,omitempty"`
	Error      string `json:"error,omitempty"`
	Kind       string `json:"error_kind,omitempty"`
	Debug      string `json:"debug,omitempty"`
}

// EvaluateExpression evaluates node against data without failing. With
// debug set the result carries the node's debug trace.
func EvaluateExpression(node *rules.Node, data any, debug bool) ExpressionResult {
	res := node.Try(data)
	out := ExpressionResult{Expression: node.String(), Value: res.Value}
	if res.Err != nil {
		out.Value = nil
		out.Error = res.Err.Error()
		out.Kind = rules.KindOf(res.Err)
	}
	if debug {
		out.Debug = node.Debug(data)
	}
	return out
}

// RenderText writes the result in the debug notation.
func (r ExpressionResult) RenderText(w io.Writer) error {
	result := rules.FormatValue(r.Value)
	if r.Kind != "" {
		result = r.Kind
	}
	if _, err := fmt.Fprintf(w, "%s = %s\n", r.Expression, result); err != nil {
		return err
	}
	if r.Error != "" {
		if _, err := fmt.Fprintf(w, "  %s\n", r.Error); err != nil {
			return err
		}
	}
	if r.Debug != "" {
		if _, err := fmt.Fprintf(w, "  %s\n", r.Debug); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	data := body["data"]

	if raw, named := body["rule"]; named {
		name, isString := raw.(string)
		if !isString || name == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest,
				`"rule" must be a non-empty string`)
			return
		}
		res, err := s.engine.EvaluateRule(r.Context(), name, data)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	report, err := s.engine.Evaluate(r.Context(), data)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	traces, err := s.engine.Debug(body["data"])
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := DebugResponse{Rules: traces}
	if set := s.engine.Ruleset(); set != nil {
		resp.Ruleset = set.Name()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	set := s.engine.Ruleset()
	if set == nil {
		writeEngineError(w, ruleset.ErrNoRuleset)
		return
	}
	writeJSON(w, http.StatusOK, set.Document())
}

func (s *Server) handleExpression(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	raw, present := body["expression"]
	if !present {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest, `missing "expression"`)
		return
	}
	node, err := s.registry.Decode(raw)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest,
			fmt.Sprintf("invalid expression: %v", err))
		return
	}

	debug, _ := body["debug"].(bool)
	writeJSON(w, http.StatusOK, EvaluateExpression(node, body["data"], debug))
}

// readBody decodes the request body into a JSON object. An empty body is
// an empty object. It writes the error response itself on failure.
func readBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, middleware.ErrorTypeRequestTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
			return nil, false
		}
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest, "failed to read request body")
		return nil, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, true
	}

	v, err := rules.JSONValue(data)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest, err.Error())
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest, "request body must be a JSON object")
		return nil, false
	}
	return obj, true
}

// writeEngineError maps engine errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ruleset.ErrNoRuleset):
		middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrorTypeServiceUnavailable, err.Error())
	case errors.Is(err, ruleset.ErrRuleNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrorTypeNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		middleware.WriteError(w, http.StatusGatewayTimeout, middleware.ErrorTypeTimeout, "evaluation did not finish in time")
	default:
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrorTypeServerError, err.Error())
	}
}

// writeJSON encodes v before writing the status, so a value JSON cannot
// represent, such as an infinite float result, becomes a 500 envelope.
func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrorTypeServerError,
			fmt.Sprintf("result cannot be encoded as JSON: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
