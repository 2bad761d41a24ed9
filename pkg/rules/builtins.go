package rules

// Built-in kinds. Their names are the public vocabulary of the
// representation and must not change.
var (
	KindEquals   = NewKind("equals", 2, 2, compareWith(func(a, b any) (bool, error) { return Equal(a, b), nil }))
	KindLte      = NewKind("lte", 2, 2, compareWith(LessEqual))
	KindGte      = NewKind("gte", 2, 2, compareWith(GreaterEqual))
	KindIn       = NewKind("in", 2, 2, compareWith(func(a, b any) (bool, error) { return Contains(b, a) }))
	KindNotIn    = NewKind("notin", 2, 2, compareWith(notIn))
	KindOr       = NewKind("or", 2, Unbounded, evalOr)
	KindAnd      = NewKind("and", 2, Unbounded, evalAnd)
	KindNot      = NewKind("not", 1, 1, evalNot)
	KindIf       = NewKind("if", 3, 3, evalIf)
	KindConstant = NewKind("constant", 1, 1, evalConstant)
	KindParam    = NewKind("param", 1, 1, evalParam)
	KindDParam   = NewKind("dparam", 2, 2, evalDParam)
	KindAdd      = NewKind("add", 2, 2, arithmeticWith("+"))
	KindSubtract = NewKind("subtract", 2, 2, arithmeticWith("-"))
	KindMultiply = NewKind("multiply", 2, 2, arithmeticWith("*"))
	KindDivide   = NewKind("divide", 2, 2, arithmeticWith("/"))
)

var builtinKinds = []*Kind{
	KindEquals, KindLte, KindGte, KindIn, KindNotIn,
	KindOr, KindAnd, KindNot, KindIf,
	KindConstant, KindParam, KindDParam,
	KindAdd, KindSubtract, KindMultiply, KindDivide,
}

// evalOperands evaluates the first two arguments in order.
func evalOperands(n *Node, ctx any) (any, any, error) {
	a, err := n.args[0].evaluate(ctx)
	if err != nil {
		return nil, nil, err
	}
	b, err := n.args[1].evaluate(ctx)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func compareWith(op func(a, b any) (bool, error)) EvalFunc {
	return func(n *Node, ctx any) (any, error) {
		a, b, err := evalOperands(n, ctx)
		if err != nil {
			return nil, err
		}
		ok, err := op(a, b)
		if err != nil {
			return nil, err
		}
		return ok, nil
	}
}

func arithmeticWith(op string) EvalFunc {
	return func(n *Node, ctx any) (any, error) {
		a, b, err := evalOperands(n, ctx)
		if err != nil {
			return nil, err
		}
		return arithmetic(op, a, b)
	}
}

func notIn(a, b any) (bool, error) {
	in, err := Contains(b, a)
	return !in, err
}

// evalAll evaluates every argument, even after the outcome is known.
func evalAll(n *Node, ctx any) ([]bool, error) {
	results := make([]bool, len(n.args))
	for i, arg := range n.args {
		v, err := arg.evaluate(ctx)
		if err != nil {
			return nil, err
		}
		results[i] = Truthy(v)
	}
	return results, nil
}

func evalOr(n *Node, ctx any) (any, error) {
	results, err := evalAll(n, ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r {
			return true, nil
		}
	}
	return false, nil
}

func evalAnd(n *Node, ctx any) (any, error) {
	results, err := evalAll(n, ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if !r {
			return false, nil
		}
	}
	return true, nil
}

func evalNot(n *Node, ctx any) (any, error) {
	v, err := n.args[0].evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return !Truthy(v), nil
}

// evalIf evaluates only the branch selected by the condition.
func evalIf(n *Node, ctx any) (any, error) {
	cond, err := n.args[0].evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return n.args[1].evaluate(ctx)
	}
	return n.args[2].evaluate(ctx)
}

func evalConstant(n *Node, _ any) (any, error) {
	return n.args[0].Value(), nil
}

func paramPath(n *Node) (string, error) {
	path, ok := n.args[0].Value().(string)
	if !ok {
		return "", typeError(n.kind.name, "path must be a string, not %s", typeName(n.args[0].Value()))
	}
	return path, nil
}

func evalParam(n *Node, ctx any) (any, error) {
	path, err := paramPath(n)
	if err != nil {
		return nil, err
	}
	return ResolvePath(ctx, path), nil
}

// evalDParam returns the default argument verbatim when the path resolves
// to nil.
func evalDParam(n *Node, ctx any) (any, error) {
	path, err := paramPath(n)
	if err != nil {
		return nil, err
	}
	if v := ResolvePath(ctx, path); v != nil {
		return v, nil
	}
	return n.args[1].Value(), nil
}

// Equals builds an equals node.
func Equals(a, b any) *Node { return mustNew(KindEquals, a, b) }

// Lte builds an lte node.
func Lte(a, b any) *Node { return mustNew(KindLte, a, b) }

// Gte builds a gte node.
func Gte(a, b any) *Node { return mustNew(KindGte, a, b) }

// In builds a node testing that item is a member of container.
func In(item, container any) *Node { return mustNew(KindIn, item, container) }

// NotIn builds a node testing that item is not a member of container.
func NotIn(item, container any) *Node { return mustNew(KindNotIn, item, container) }

// Or builds an or node over two or more operands.
func Or(a, b any, more ...any) *Node {
	return mustNew(KindOr, append([]any{a, b}, more...)...)
}

// And builds an and node over two or more operands.
func And(a, b any, more ...any) *Node {
	return mustNew(KindAnd, append([]any{a, b}, more...)...)
}

// Not builds a not node.
func Not(a any) *Node { return mustNew(KindNot, a) }

// If builds a conditional node.
func If(cond, then, otherwise any) *Node { return mustNew(KindIf, cond, then, otherwise) }

// Constant builds a constant node. The value is stored and returned as-is.
func Constant(v any) *Node { return mustNew(KindConstant, v) }

// Param builds a node resolving a dotted path against the context.
func Param(path string) *Node { return mustNew(KindParam, path) }

// DParam builds a param node with a default used when the path resolves
// to nil.
func DParam(path string, def any) *Node { return mustNew(KindDParam, path, def) }

// Add builds an add node.
func Add(a, b any) *Node { return mustNew(KindAdd, a, b) }

// Subtract builds a subtract node.
func Subtract(a, b any) *Node { return mustNew(KindSubtract, a, b) }

// Multiply builds a multiply node.
func Multiply(a, b any) *Node { return mustNew(KindMultiply, a, b) }

// Divide builds a divide node.
func Divide(a, b any) *Node { return mustNew(KindDivide, a, b) }
