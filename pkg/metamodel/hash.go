package metamodel

import "reflect"

// Hashable reports whether pojo can be compared with == and used as a map
// key without panicking. Unlike reflect.Type.Comparable it looks through
// interface fields at the dynamic values they hold.
func Hashable(pojo any) bool {
	if pojo == nil {
		return true
	}
	return hashable(reflect.ValueOf(pojo))
}

func hashable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func:
		return false
	case reflect.Interface:
		if v.IsNil() {
			return true
		}
		return hashable(v.Elem())
	case reflect.Struct:
		for i := range v.NumField() {
			if !hashable(v.Field(i)) {
				return false
			}
		}
	case reflect.Array:
		for i := range v.Len() {
			if !hashable(v.Index(i)) {
				return false
			}
		}
	}
	return true
}

// SamePojo reports whether a and b are the same instance. Values that
// cannot be compared are never the same.
func SamePojo(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !Hashable(a) || !Hashable(b) {
		return false
	}
	return a == b
}
