package validation

import (
	"reflect"
	"strings"
)

// IsEmpty reports whether v counts as "no value": nil, a nil pointer, a string
// that is blank after trimming, or an empty slice or array.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsEmpty(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	}
	return false
}
