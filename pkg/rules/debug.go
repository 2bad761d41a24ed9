package rules

import (
	"fmt"
	"strings"
)

// Result is the outcome of a non-raising evaluation: a value, or the kind
// name of the error that evaluation raised.
type Result struct {
	Value any
	Err   error
}

// Failed returns true if evaluation raised an error.
func (r Result) Failed() bool { return r.Err != nil }

// String renders the value, or the error kind name on failure.
func (r Result) String() (out string) {
	if r.Err != nil {
		return KindOf(r.Err)
	}
	defer func() {
		if recover() != nil {
			out = string(KindRuntime)
		}
	}()
	return FormatValue(r.Value)
}

// Try evaluates the node and captures any error in the result. A panic in
// a custom kind is captured as a RuntimeError.
func (n *Node) Try(ctx any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: &EvaluationError{Kind: KindRuntime, Op: n.kind.name, Message: fmt.Sprint(r)}}
		}
	}()
	v, err := n.Evaluate(ctx)
	return Result{Value: v, Err: err}
}

// Debug renders the tree with each node's result, e.g.
//
//	<equals(<param(foo)=1>, <constant(1)>)=True>
//
// A failing node shows its error kind name in place of the result. Debug
// never fails; every node is evaluated independently.
func (n *Node) Debug(ctx any) string {
	var sb strings.Builder
	n.writeDebug(&sb, ctx)
	return sb.String()
}

func (n *Node) writeDebug(sb *strings.Builder, ctx any) {
	sb.WriteByte('<')
	sb.WriteString(n.kind.name)
	sb.WriteByte('(')

	// constants are self-evident
	if n.kind == KindConstant {
		sb.WriteString(FormatValue(n.args[0].Value()))
		sb.WriteString(")>")
		return
	}

	for i, arg := range n.args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if arg.IsNode() {
			arg.node.writeDebug(sb, ctx)
			continue
		}
		sb.WriteString(FormatValue(arg.literal))
	}
	sb.WriteString(")=")
	sb.WriteString(n.Try(ctx).String())
	sb.WriteByte('>')
}
