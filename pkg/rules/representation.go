package rules

import (
	"fmt"
	"reflect"
)

// ToRepresentation returns the nested-mapping form of the tree:
//
//	{"<name>": [<arg>, ...]}
//
// Child nodes recurse; literals are passed through unchanged.
func (n *Node) ToRepresentation() map[string]any {
	args := make([]any, len(n.args))
	for i, arg := range n.args {
		if arg.IsNode() {
			args[i] = arg.node.ToRepresentation()
			continue
		}
		args[i] = arg.literal
	}
	return map[string]any{n.kind.name: args}
}

// FromRepresentation rebuilds a tree using DefaultRegistry.
func FromRepresentation(v any) (any, error) {
	return DefaultRegistry.FromRepresentation(v)
}

// Decode rebuilds a tree using DefaultRegistry and requires the root to be
// a node.
func Decode(v any) (*Node, error) {
	return DefaultRegistry.Decode(v)
}

// FromRepresentation rebuilds a tree from its nested-mapping form. A
// single-key mapping whose key is a registered name becomes a node of that
// kind, with each argument decoded recursively. Anything else, including
// mappings with unregistered keys, is returned unchanged as literal data.
func (r *Registry) FromRepresentation(v any) (any, error) {
	name, rawArgs, ok := singleKey(v)
	if !ok {
		return v, nil
	}
	kind, ok := r.Lookup(name)
	if !ok {
		return v, nil
	}

	list, ok := argList(rawArgs)
	if !ok {
		return nil, typeError(name, "arguments must be a list, not %s", typeName(rawArgs))
	}

	args := make([]any, len(list))
	for i, raw := range list {
		arg, err := r.FromRepresentation(raw)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	n, err := New(kind, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", name, err)
	}
	return n, nil
}

// Decode is FromRepresentation for callers that expect a node at the root.
func (r *Registry) Decode(v any) (*Node, error) {
	decoded, err := r.FromRepresentation(v)
	if err != nil {
		return nil, err
	}
	n, ok := decoded.(*Node)
	if !ok {
		return nil, ErrNotANode
	}
	return n, nil
}

// singleKey extracts the only entry of a string-keyed mapping.
func singleKey(v any) (string, any, bool) {
	switch m := v.(type) {
	case map[string]any:
		if len(m) != 1 {
			return "", nil, false
		}
		for k, val := range m {
			return k, val, true
		}
	case map[any]any:
		if len(m) != 1 {
			return "", nil, false
		}
		for k, val := range m {
			s, ok := k.(string)
			return s, val, ok
		}
	}

	if v == nil {
		return "", nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Len() != 1 || rv.Type().Key().Kind() != reflect.String {
		return "", nil, false
	}
	iter := rv.MapRange()
	iter.Next()
	return iter.Key().String(), iter.Value().Interface(), true
}

// argList converts any slice or array to []any.
func argList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	list := make([]any, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, true
}
