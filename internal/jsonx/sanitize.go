// Package jsonx provides helpers for working with JSON-shaped values
// (map[string]any / []any trees): cycle-safe copying, key stripping, and
// structural equality.
package jsonx

import "reflect"

// Sanitize returns a copy of v with any cyclic edge removed: a map entry or
// slice element whose value is reference-identical to one of its own
// ancestors (or to v itself) is omitted from the copy, not nulled. Values
// that are not map[string]any or []any pass through unchanged.
func Sanitize(v any) any {
	return prune(v, nil, nil)
}

// RemoveKeys is Sanitize plus key filtering: map entries whose key is in
// keys are dropped at every nesting level, using the same ancestor-tracking
// traversal.
func RemoveKeys(v any, keys map[string]struct{}) any {
	return prune(v, keys, nil)
}

func prune(v any, keys map[string]struct{}, ancestors []uintptr) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) > 0 {
			ancestors = append(ancestors, reflect.ValueOf(t).Pointer())
		}
		out := make(map[string]any, len(t))
		for k, child := range t {
			if _, drop := keys[k]; drop {
				continue
			}
			if isAncestor(child, ancestors) {
				continue
			}
			out[k] = prune(child, keys, ancestors)
		}
		return out
	case []any:
		if len(t) > 0 {
			ancestors = append(ancestors, reflect.ValueOf(t).Pointer())
		}
		out := make([]any, 0, len(t))
		for _, child := range t {
			if isAncestor(child, ancestors) {
				continue
			}
			out = append(out, prune(child, keys, ancestors))
		}
		return out
	default:
		return v
	}
}

// isAncestor reports whether child is reference-identical to a container
// already on the traversal path. Identity is the container's backing
// pointer; empty containers are never cyclic, so they are skipped both when
// pushed and when checked.
func isAncestor(child any, ancestors []uintptr) bool {
	var p uintptr
	switch c := child.(type) {
	case map[string]any:
		if len(c) == 0 {
			return false
		}
		p = reflect.ValueOf(c).Pointer()
	case []any:
		if len(c) == 0 {
			return false
		}
		p = reflect.ValueOf(c).Pointer()
	default:
		return false
	}
	for _, a := range ancestors {
		if a == p {
			return true
		}
	}
	return false
}
