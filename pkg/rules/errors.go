package rules

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrorKind names the category of a rule error. Debug output shows the kind
// name in place of a node's result when evaluation fails.
type ErrorKind string

const (
	KindTypeError      ErrorKind = "TypeError"           // unsupported operand types
	KindZeroDivision   ErrorKind = "ZeroDivisionError"   // divide by zero
	KindNotImplemented ErrorKind = "NotImplementedError" // kind without an evaluation rule
	KindArity          ErrorKind = "ArityError"          // argument count out of bounds
	KindRuntime        ErrorKind = "RuntimeError"        // panic inside a custom kind
)

// ErrNotANode is returned when a decoded representation is a literal rather
// than a registered node.
var ErrNotANode = errors.New("representation is not a registered node")

// ErrNilKind is returned when a node is constructed without a kind.
var ErrNilKind = errors.New("node kind is nil")

// ArityError reports a node constructed with too few or too many arguments.
type ArityError struct {
	Kind     string // node name, empty for unnamed kinds
	Bound    string // "min" or "max"
	Expected int
	Actual   int
}

// Error returns the error message.
func (e *ArityError) Error() string {
	msg := fmt.Sprintf("Expected %s %d args but was %d", e.Bound, e.Expected, e.Actual)
	if e.Kind != "" {
		return e.Kind + ": " + msg
	}
	return msg
}

// EvaluationError is raised by a value operation during evaluation.
type EvaluationError struct {
	Kind    ErrorKind
	Op      string
	Message string
}

// Error returns the error message.
func (e *EvaluationError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func typeError(op, format string, args ...any) error {
	return &EvaluationError{Kind: KindTypeError, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind name of err. Errors that are not rule errors are
// named after their Go type.
func KindOf(err error) string {
	if err == nil {
		return ""
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return string(evalErr.Kind)
	}

	var arityErr *ArityError
	if errors.As(err, &arityErr) {
		return string(KindArity)
	}

	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "error"
	}
	return t.Name()
}
