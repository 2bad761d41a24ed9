// Package rules implements a small embeddable rule-expression engine.
//
// A rule is a tree of nodes. Each node is an instance of a Kind (equals,
// add, param, ...) holding a fixed list of arguments; an argument is either
// another node, evaluated recursively, or a literal value returned as-is.
// Trees are immutable once built and can be evaluated any number of times,
// concurrently, against different contexts.
//
// # Building Trees
//
// Trees are built with the kind builders:
//
//	rule := rules.Equals(rules.Param("foo"), rules.Add(rules.Param("bar"), rules.Constant(5)))
//
//	result, err := rule.Evaluate(map[string]any{"foo": 1, "bar": 2})
//	// result == false
//
// or with New, which validates the argument count against the kind's arity:
//
//	n, err := rules.New(rules.KindOr, rules.Param("a"))
//	// err is *rules.ArityError: "or: Expected min 2 args but was 1"
//
// # Contexts
//
// param and dparam resolve dotted paths such as "user.address.city". Each
// segment is looked up as a field first (FieldResolver implementations and
// struct fields) and as a map key second. A path that cannot be resolved
// yields nil; dparam substitutes its default in that case.
//
// # Representation
//
// Trees serialize to a nested single-key mapping:
//
//	{"equals": [{"param": ["foo"]}, {"constant": [5]}]}
//
// ToRepresentation and FromRepresentation convert between the two forms.
// Mappings whose key is not a registered node name are kept as literal
// data. Node implements json.Marshaler, json.Unmarshaler, yaml.Marshaler
// and yaml.Unmarshaler over this form.
//
// # Debugging
//
// Debug renders a tree with every node's result and never fails. A node
// whose evaluation raises shows the error kind name instead:
//
//	<equals(<param(foo)=None>, <add(<param(bar)=None>, <constant(5)>)=TypeError>)=TypeError>
package rules
