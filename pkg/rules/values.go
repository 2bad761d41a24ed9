package rules

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// numeric holds a number widened to int64 or float64.
type numeric struct {
	i       int64
	f       float64
	isFloat bool
}

func (n numeric) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// toNumeric widens any Go integer or float type. Booleans are not numbers.
func toNumeric(v any) (numeric, bool) {
	switch val := v.(type) {
	case int:
		return numeric{i: int64(val)}, true
	case int8:
		return numeric{i: int64(val)}, true
	case int16:
		return numeric{i: int64(val)}, true
	case int32:
		return numeric{i: int64(val)}, true
	case int64:
		return numeric{i: val}, true
	case uint:
		return numeric{i: int64(val)}, true
	case uint8:
		return numeric{i: int64(val)}, true
	case uint16:
		return numeric{i: int64(val)}, true
	case uint32:
		return numeric{i: int64(val)}, true
	case uint64:
		if val > math.MaxInt64 {
			return numeric{f: float64(val), isFloat: true}, true
		}
		return numeric{i: int64(val)}, true
	case float32:
		return numeric{f: float64(val), isFloat: true}, true
	case float64:
		return numeric{f: val, isFloat: true}, true
	default:
		return numeric{}, false
	}
}

// typeName names a dynamic value in error messages.
func typeName(v any) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%T", v)
}

// Equal reports operand equality. Numbers compare by value across types,
// also when nested in sequences or mappings, so [1] equals [1.0] and a
// decoded JSON document equals the Go values it was encoded from.
// Anything else compares by deep equality.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	an, aok := toNumeric(a)
	bn, bok := toNumeric(b)
	if aok && bok {
		if !an.isFloat && !bn.isFloat {
			return an.i == bn.i
		}
		return an.float() == bn.float()
	}
	if aok || bok {
		return false
	}

	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isSequence(av) && isSequence(bv):
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !Equal(av.Index(i).Interface(), bv.Index(i).Interface()) {
				return false
			}
		}
		return true

	case av.Kind() == reflect.Map && bv.Kind() == reflect.Map:
		return equalMaps(av, bv)
	}

	return reflect.DeepEqual(a, b)
}

func isSequence(v reflect.Value) bool {
	k := v.Kind()
	return (k == reflect.Slice || k == reflect.Array) && v.Type().Elem().Kind() != reflect.Uint8
}

// equalMaps compares mappings key by key, looking keys up by Equal when
// the two key types differ.
func equalMaps(a, b reflect.Value) bool {
	if a.Len() != b.Len() {
		return false
	}
	sameKeys := a.Type().Key() == b.Type().Key()
	iter := a.MapRange()
	for iter.Next() {
		var other reflect.Value
		if sameKeys {
			other = b.MapIndex(iter.Key())
		} else {
			other = findKey(b, iter.Key().Interface())
		}
		if !other.IsValid() || !Equal(iter.Value().Interface(), other.Interface()) {
			return false
		}
	}
	return true
}

func findKey(m reflect.Value, key any) reflect.Value {
	iter := m.MapRange()
	for iter.Next() {
		if Equal(iter.Key().Interface(), key) {
			return iter.Value()
		}
	}
	return reflect.Value{}
}

// compare orders two operands, returning -1, 0 or 1.
func compare(op string, a, b any) (int, error) {
	an, aok := toNumeric(a)
	bn, bok := toNumeric(b)
	if aok && bok {
		if !an.isFloat && !bn.isFloat {
			return cmpOrdered(an.i, bn.i), nil
		}
		return cmpOrdered(an.float(), bn.float()), nil
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), nil
	}

	return 0, typeError(op, "'%s' not supported between instances of %s and %s", op, typeName(a), typeName(b))
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// LessEqual implements the lte operator.
func LessEqual(a, b any) (bool, error) {
	c, err := compare("<=", a, b)
	return c <= 0, err
}

// GreaterEqual implements the gte operator.
func GreaterEqual(a, b any) (bool, error) {
	c, err := compare(">=", a, b)
	return c >= 0, err
}

// Contains reports whether item is a member of container. Slices and
// arrays test element equality, strings test substrings and maps test keys.
func Contains(container, item any) (bool, error) {
	if s, ok := container.(string); ok {
		sub, ok := item.(string)
		if !ok {
			return false, typeError("in", "'in <string>' requires string as left operand, not %s", typeName(item))
		}
		return strings.Contains(s, sub), nil
	}

	if container == nil {
		return false, typeError("in", "argument of type %s is not iterable", typeName(container))
	}

	v := reflect.ValueOf(container)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if Equal(v.Index(i).Interface(), item) {
				return true, nil
			}
		}
		return false, nil

	case reflect.Map:
		if item == nil {
			return false, nil
		}
		key := reflect.ValueOf(item)
		switch key.Kind() {
		case reflect.Slice, reflect.Map, reflect.Func:
			return false, typeError("in", "unhashable type: %s", typeName(item))
		}
		if !key.Type().AssignableTo(v.Type().Key()) {
			if !key.Type().ConvertibleTo(v.Type().Key()) || key.Kind() != v.Type().Key().Kind() {
				return false, nil
			}
			key = key.Convert(v.Type().Key())
		}
		return v.MapIndex(key).IsValid(), nil

	default:
		return false, typeError("in", "argument of type %s is not iterable", typeName(container))
	}
}

// Truthy reports the truth value of v: nil, false, zero numbers and empty
// strings or collections are false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	if n, ok := toNumeric(v); ok {
		if n.isFloat {
			return n.f != 0
		}
		return n.i != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// arithmetic applies a binary operator to two operands. Integer operands
// keep integer semantics; any float operand promotes the result to float.
func arithmetic(op string, a, b any) (any, error) {
	an, aok := toNumeric(a)
	bn, bok := toNumeric(b)
	if aok && bok {
		return numericOp(op, an, bn)
	}

	if op == "+" {
		if as, ok := a.(string); ok {
			if bs, ok := b.(string); ok {
				return as + bs, nil
			}
		}
		if al, ok := a.([]any); ok {
			if bl, ok := b.([]any); ok {
				out := make([]any, 0, len(al)+len(bl))
				out = append(out, al...)
				return append(out, bl...), nil
			}
		}
	}

	return nil, typeError(op, "unsupported operand type(s) for %s: %s and %s", op, typeName(a), typeName(b))
}

func numericOp(op string, a, b numeric) (any, error) {
	if op == "/" && b.float() == 0 {
		return nil, &EvaluationError{Kind: KindZeroDivision, Op: op, Message: "division by zero"}
	}

	if !a.isFloat && !b.isFloat {
		switch op {
		case "+":
			return a.i + b.i, nil
		case "-":
			return a.i - b.i, nil
		case "*":
			return a.i * b.i, nil
		case "/":
			return a.i / b.i, nil
		}
	}

	x, y := a.float(), b.float()
	switch op {
	case "+":
		return x + y, nil
	case "-":
		return x - y, nil
	case "*":
		return x * y, nil
	case "/":
		return x / y, nil
	}
	return nil, typeError(op, "unknown operator")
}

// FormatValue renders a value the way debug output shows it: None for nil,
// True/False for booleans, and bracketed sequences and mappings.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case string:
		return val
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return "None"
	}
	if s, ok := v.(fmt.Stringer); ok {
		return stringOf(s)
	}

	if n, ok := toNumeric(v); ok {
		if n.isFloat {
			return formatFloat(n.f)
		}
		return strconv.FormatInt(n.i, 10)
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatElement(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"

	case reflect.Map:
		parts := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			parts = append(parts, formatElement(iter.Key().Interface())+": "+formatElement(iter.Value().Interface()))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	}

	return fmt.Sprintf("%v", v)
}

// stringOf calls String, rendering a panicking method as <Type>.
func stringOf(s fmt.Stringer) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = "<" + typeName(s) + ">"
		}
	}()
	return s.String()
}

// formatElement quotes strings nested inside collections.
func formatElement(v any) string {
	if s, ok := v.(string); ok {
		return quoteString(s)
	}
	return FormatValue(v)
}

// quoteString quotes s with single quotes, switching to double quotes
// when s contains a single quote and no double quote.
func quoteString(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var sb strings.Builder
	sb.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\' || r == rune(q):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
