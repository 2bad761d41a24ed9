package rules

import (
	"reflect"
	"strings"
)

// FieldResolver is implemented by contexts that expose named attributes
// without being plain structs or maps.
type FieldResolver interface {
	ResolveField(name string) (any, bool)
}

// ResolvePath walks a dotted path through ctx one segment at a time. Each
// segment is looked up as a field first and as a map key second. It returns
// nil as soon as a segment cannot be resolved.
func ResolvePath(ctx any, path string) any {
	result := ctx
	for _, segment := range strings.Split(path, ".") {
		value, ok := resolveField(result, segment)
		if !ok {
			value, ok = resolveKey(result, segment)
		}
		if !ok {
			return nil
		}
		result = value
	}
	return result
}

// resolveField performs attribute access on resolvers and structs.
func resolveField(obj any, name string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	if r, ok := obj.(FieldResolver); ok {
		return r.ResolveField(name)
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}

	f := structField(v, name)
	if !f.IsValid() || !f.CanInterface() {
		return nil, false
	}
	return f.Interface(), true
}

// structField finds a field by exact name, then by json tag, then
// case-insensitively.
func structField(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	if sf, ok := t.FieldByName(name); ok && sf.IsExported() {
		return v.FieldByIndex(sf.Index)
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == name {
			return v.Field(i)
		}
	}

	return v.FieldByNameFunc(func(field string) bool {
		return strings.EqualFold(field, name)
	})
}

// resolveKey performs key lookup on string-keyed maps. A missing key
// resolves to nil.
func resolveKey(obj any, key string) (any, bool) {
	switch m := obj.(type) {
	case map[string]any:
		return m[key], true
	case map[any]any:
		return m[key], true
	}

	if obj == nil {
		return nil, false
	}
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	elem := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
	if !elem.IsValid() {
		return nil, true
	}
	return elem.Interface(), true
}
