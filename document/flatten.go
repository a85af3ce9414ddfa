package document

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/torii-ai/kansa/internal/jsonx"
)

// KV is one flattened metadata entry. The backing index maps metadata
// fields as nested arrays of {key: keyword, value: text+keyword}, so
// dynamically named properties never widen the mapping.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RequestKV is one flattened request entry. Parent is empty for top-level
// scalar fields and names the enclosing sub-object for one level of
// nesting (e.g. key "transactionId", parent "body").
type RequestKV struct {
	Key    string `json:"key"`
	Parent string `json:"parent,omitempty"`
	Value  string `json:"value"`
}

// Stringify renders a metadata value for a text-typed field. Strings pass
// through verbatim; everything else is cycle-sanitized and JSON-encoded.
// Lossy for non-string leaf types: round-tripping restores the string
// representation, not the original type. That is the storage contract.
func Stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(jsonx.Sanitize(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// FlattenMap converts a metadata map to a key/value list. Keys are emitted
// in sorted order so serialization is deterministic; no entry is dropped.
func FlattenMap(m map[string]any) []KV {
	if len(m) == 0 {
		return nil
	}
	keys := sortedKeys(m)
	out := make([]KV, 0, len(m))
	for _, k := range keys {
		out = append(out, KV{Key: k, Value: Stringify(m[k])})
	}
	return out
}

// ExpandList converts a key/value list back to a map. Duplicate keys
// resolve last-write-wins; the flattening side never produces duplicates,
// so this is only reachable for documents written by other means.
func ExpandList(list []KV) map[string]any {
	if len(list) == 0 {
		return nil
	}
	m := make(map[string]any, len(list))
	for _, kv := range list {
		m[kv.Key] = kv.Value
	}
	return m
}

// FlattenRequest converts a request object to its entry list. Map-valued
// fields contribute one entry per child keyed under the parent; only one
// level of nesting is modeled, so deeper values are stringified wholesale.
func FlattenRequest(req map[string]any) []RequestKV {
	if len(req) == 0 {
		return nil
	}
	out := make([]RequestKV, 0, len(req))
	for _, k := range sortedKeys(req) {
		child, ok := req[k].(map[string]any)
		if !ok {
			out = append(out, RequestKV{Key: k, Value: Stringify(req[k])})
			continue
		}
		for _, ck := range sortedKeys(child) {
			out = append(out, RequestKV{Key: ck, Parent: k, Value: Stringify(child[ck])})
		}
	}
	return out
}

// ExpandRequest rebuilds the request object from its entry list.
func ExpandRequest(list []RequestKV) map[string]any {
	if len(list) == 0 {
		return nil
	}
	req := make(map[string]any)
	for _, e := range list {
		if e.Parent == "" {
			req[e.Key] = e.Value
			continue
		}
		child, ok := req[e.Parent].(map[string]any)
		if !ok {
			child = make(map[string]any)
			req[e.Parent] = child
		}
		child[e.Key] = e.Value
	}
	return req
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
