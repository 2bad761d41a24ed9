package rules

import (
	"reflect"
	"strings"
)

// Arg is one argument slot of a node: either a child node or a literal
// value returned as-is.
type Arg struct {
	node    *Node
	literal any
}

// NodeArg wraps a child node.
func NodeArg(n *Node) Arg { return Arg{node: n} }

// Literal wraps a literal value.
func Literal(v any) Arg { return Arg{literal: v} }

// IsNode returns true if the argument is a child node.
func (a Arg) IsNode() bool { return a.node != nil }

// Node returns the child node, or nil for literals.
func (a Arg) Node() *Node { return a.node }

// Value returns the stored value without evaluating it: the literal itself,
// or the child *Node.
func (a Arg) Value() any {
	if a.node != nil {
		return a.node
	}
	return a.literal
}

func (a Arg) evaluate(ctx any) (any, error) {
	if a.node != nil {
		return a.node.Evaluate(ctx)
	}
	return a.literal, nil
}

// Node is an immutable instance of a kind with a fixed argument list.
// Nodes hold no evaluation state and may be evaluated concurrently.
type Node struct {
	kind *Kind
	args []Arg
}

// New constructs a node of the given kind. Arguments of type *Node or Arg
// are kept as child nodes or preset slots; anything else is a literal.
// It returns ErrNilKind for a nil kind and an *ArityError if the argument
// count is outside the kind's bounds. Argument types are not checked.
func New(kind *Kind, args ...any) (*Node, error) {
	if kind == nil {
		return nil, ErrNilKind
	}
	if err := kind.checkArity(len(args)); err != nil {
		return nil, err
	}

	slots := make([]Arg, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *Node:
			if v != nil {
				slots[i] = NodeArg(v)
			}
		case Arg:
			slots[i] = v
		default:
			slots[i] = Literal(v)
		}
	}

	return &Node{kind: kind, args: slots}, nil
}

// mustNew is used by builders whose signature already fixes the arity.
func mustNew(kind *Kind, args ...any) *Node {
	n, err := New(kind, args...)
	if err != nil {
		panic(err)
	}
	return n
}

// Kind returns the node's kind.
func (n *Node) Kind() *Kind { return n.kind }

// Name returns the node's kind name.
func (n *Node) Name() string { return n.kind.name }

// Args returns a copy of the node's arguments in order.
func (n *Node) Args() []Arg {
	out := make([]Arg, len(n.args))
	copy(out, n.args)
	return out
}

// Len returns the number of arguments.
func (n *Node) Len() int { return len(n.args) }

// Arg returns the i-th argument.
func (n *Node) Arg(i int) Arg { return n.args[i] }

// Evaluate reduces the node against ctx. Errors raised by value operations
// propagate unchanged.
func (n *Node) Evaluate(ctx any) (any, error) {
	if n.kind.eval == nil {
		return nil, &EvaluationError{Kind: KindNotImplemented, Op: n.kind.name, Message: "kind has no evaluation rule"}
	}
	return n.kind.eval(n, ctx)
}

// EvalArg evaluates the i-th argument: child nodes recurse, literals are
// returned as-is. It is intended for custom kinds.
func (n *Node) EvalArg(i int, ctx any) (any, error) {
	return n.args[i].evaluate(ctx)
}

// Equal reports whether two trees have the same kinds and arguments.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.kind.name != other.kind.name || len(n.args) != len(other.args) {
		return false
	}
	for i, a := range n.args {
		b := other.args[i]
		if a.IsNode() != b.IsNode() {
			return false
		}
		if a.IsNode() {
			if !a.node.Equal(b.node) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(a.literal, b.literal) {
			return false
		}
	}
	return true
}

// String returns the tree in call form, e.g. equals(param(foo), 5).
func (n *Node) String() string {
	var sb strings.Builder
	n.writeCall(&sb)
	return sb.String()
}

func (n *Node) writeCall(sb *strings.Builder) {
	sb.WriteString(n.kind.name)
	sb.WriteByte('(')
	for i, arg := range n.args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if arg.IsNode() {
			arg.node.writeCall(sb)
			continue
		}
		sb.WriteString(FormatValue(arg.literal))
	}
	sb.WriteByte(')')
}
