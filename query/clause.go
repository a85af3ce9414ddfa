// Package query compiles structured Action filters into the search
// engine's nested boolean query language. Compilation is a pure function
// over immutable inputs; identical filters always produce an identical
// clause list, so it is safe to call concurrently from any number of
// goroutines.
package query

// Clause is one node of the engine's query DSL, shaped for direct JSON
// serialization.
type Clause = map[string]any

// Term builds an exact-match clause on a single field.
func Term(field string, value any) Clause {
	return Clause{"term": map[string]any{field: value}}
}

// Terms builds an any-of match clause; values is a slice of candidates.
func Terms(field string, values any) Clause {
	return Clause{"terms": map[string]any{field: values}}
}

// Range builds a range clause with the given bounds (gte/lt keys).
func Range(field string, bounds map[string]any) Clause {
	return Clause{"range": map[string]any{field: bounds}}
}

// Nested scopes q to one element of the array-of-objects field at path,
// matched independently of its sibling elements.
func Nested(path string, q Clause) Clause {
	return Clause{"nested": map[string]any{"path": path, "query": q}}
}

// MustAll ANDs clauses together. A one-element group collapses to its bare
// clause instead of a bool wrapper; exact-match consumers depend on this.
func MustAll(clauses []Clause) Clause {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return Clause{"bool": map[string]any{"must": clauses}}
}

// ShouldAny ORs clauses together, collapsing singletons like MustAll.
func ShouldAny(clauses []Clause) Clause {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return Clause{"bool": map[string]any{"should": clauses}}
}
