package checks

import (
	"reflect"
	"unicode/utf8"

	pred "github.com/reoring/predicate"
)

// equal compares JSON-like values. Numbers compare by value regardless of
// their Go representation (json.Number, float64, int from YAML).
func equal(a, b any) bool {
	if fa, ok := pred.AsFloat(a); ok {
		fb, ok := pred.AsFloat(b)
		return ok && fa == fb
	}
	switch at := a.(type) {
	case map[string]any:
		bt, ok := b.(map[string]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !equal(av, bv) {
				return false
			}
		}
		return true
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !equal(at[i], bt[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// length returns the rune count of a string or the length of a collection.
func length(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return utf8.RuneCountInString(t), true
	case []any:
		return len(t), true
	case map[string]any:
		return len(t), true
	case nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	default:
		return 0, false
	}
}

// bound reads an optional numeric bound from an options object. Absent and
// null bounds are ignored.
func bound(opts any, key string) (float64, bool) {
	m, ok := opts.(map[string]any)
	if !ok {
		return 0, false
	}
	return pred.AsFloat(m[key])
}

func kindName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := pred.AsFloat(v); ok {
		return "number"
	}
	return reflect.TypeOf(v).String()
}
