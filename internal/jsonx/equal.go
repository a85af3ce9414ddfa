package jsonx

import "encoding/json"

// DeepEqual reports structural equality of two JSON-shaped values.
// Maps compare over the union of both key sets, so an extra or missing key
// on either side fails the comparison. Slices compare index-wise and are
// order-sensitive. Numbers compare by value regardless of Go type, since a
// decode/encode round trip turns every number into float64.
func DeepEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !DeepEqual(x, y) {
				return false
			}
		}
		for k := range bv {
			if _, ok := av[k]; !ok {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		if af, ok := asFloat(a); ok {
			bf, ok := asFloat(b)
			return ok && af == bf
		}
		return a == b
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
