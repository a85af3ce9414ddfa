package query

import (
	"sort"
	"time"

	"github.com/torii-ai/kansa/document"
	"github.com/torii-ai/kansa/model"
)

// Compile translates filters into an ordered clause list. The caller wraps
// the result in a top-level AND. now anchors the default six-month window
// and is injected once per call so both bounds agree.
func Compile(f model.Filters, now time.Time) []Clause {
	clauses := []Clause{
		Term("companyId", f.CompanyID),
		timestampRange(f, now),
	}

	for _, s := range []struct {
		field  string
		values model.StringList
	}{
		{"id", f.ID},
		{"clientId", f.ClientID},
		{"app", f.App},
		{"environment", f.Environment},
		{"sessionId", f.SessionID},
		{"traceIds", f.TraceIDs},
	} {
		if len(s.values) > 0 {
			clauses = append(clauses, Terms(s.field, []string(s.values)))
		}
	}

	if c, ok := frameworkClause(f.Framework); ok {
		clauses = append(clauses, c)
	}
	if c, ok := actionClause(f.Action); ok {
		clauses = append(clauses, c)
	}
	if c, ok := entityClause("agents", f.Agents); ok {
		clauses = append(clauses, c)
	}
	if c, ok := entityClause("targets", f.Targets); ok {
		clauses = append(clauses, c)
	}
	if c, ok := changesClause(f.Changes); ok {
		clauses = append(clauses, c)
	}
	if c, ok := requestClause(f.Request); ok {
		clauses = append(clauses, c)
	}
	if c, ok := responseClause(f.Response); ok {
		clauses = append(clauses, c)
	}
	if c, ok := metaClause("meta", f.Meta); ok {
		clauses = append(clauses, c)
	}
	if f.Query != "" {
		clauses = append(clauses, freeTextClause(f.Query))
	}

	return clauses
}

// BuildSearchBody assembles the full search request body: the compiled
// clauses under a top-level AND plus pagination and sorting.
func BuildSearchBody(opts model.SearchOptions, f model.Filters, now time.Time) map[string]any {
	opts = opts.WithDefaults()
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{"must": Compile(f, now)},
		},
		"from": (opts.Page - 1) * opts.Limit,
		"size": opts.Limit,
		"sort": []any{
			map[string]any{opts.SortBy: map[string]any{"order": opts.SortDirection}},
		},
	}
}

func timestampRange(f model.Filters, now time.Time) Clause {
	start := now.AddDate(0, -6, 0)
	if f.Start != nil {
		start = *f.Start
	}
	end := now
	if f.End != nil {
		end = *f.End
	}
	return Range("timestamp", map[string]any{
		"gte": start.UTC().Format(document.TimeFormat),
		"lt":  end.UTC().Format(document.TimeFormat),
	})
}

// frameworkClause is the object-match combinator for framework filters:
// AND populated sub-fields within a candidate, OR across candidates.
func frameworkClause(filters model.FrameworkFilters) (Clause, bool) {
	var cands []Clause
	for _, c := range filters {
		var inner []Clause
		if c.Name != "" {
			inner = append(inner, Term("framework.name", c.Name))
		}
		if c.Version != "" {
			inner = append(inner, Term("framework.version", c.Version))
		}
		if len(inner) > 0 {
			cands = append(cands, MustAll(inner))
		}
	}
	if len(cands) == 0 {
		return nil, false
	}
	return ShouldAny(cands), true
}

// actionClause is the object-match combinator for the action body. object
// is indexed as full text, so exact matching goes through its keyword
// sibling.
func actionClause(filters model.ActionFilters) (Clause, bool) {
	var cands []Clause
	for _, c := range filters {
		var inner []Clause
		if c.ID != "" {
			inner = append(inner, Term("action.id", c.ID))
		}
		if c.Type != "" {
			inner = append(inner, Term("action.type", c.Type))
		}
		if c.Verb != "" {
			inner = append(inner, Term("action.verb", c.Verb))
		}
		if c.Object != "" {
			inner = append(inner, Term("action.object.keyword", c.Object))
		}
		if len(inner) > 0 {
			cands = append(cands, MustAll(inner))
		}
	}
	if len(cands) == 0 {
		return nil, false
	}
	return ShouldAny(cands), true
}

// entityClause is the nested entity combinator for agents and targets.
// Direct fields and any per-key meta checks are AND'd inside one nested
// wrapper per candidate, so all conditions must hold on the same array
// element.
func entityClause(path string, filters model.EntityFilters) (Clause, bool) {
	var cands []Clause
	for _, c := range filters {
		var inner []Clause
		if c.ID != "" {
			inner = append(inner, Term(path+".id", c.ID))
		}
		if c.Type != "" {
			inner = append(inner, Term(path+".type", c.Type))
		}
		if c.Name != "" {
			inner = append(inner, Term(path+".name", c.Name))
		}
		inner = append(inner, metaPairClauses(path+".meta", c.Meta)...)
		if len(inner) > 0 {
			cands = append(cands, Nested(path, MustAll(inner)))
		}
	}
	if len(cands) == 0 {
		return nil, false
	}
	return ShouldAny(cands), true
}

// changesClause is the nested entity combinator for recorded changes.
// path/before/after are full-text fields, matched via keyword siblings.
func changesClause(filters model.ChangeFilters) (Clause, bool) {
	var cands []Clause
	for _, c := range filters {
		var inner []Clause
		if c.Model != "" {
			inner = append(inner, Term("changes.model", c.Model))
		}
		if c.Operation != "" {
			inner = append(inner, Term("changes.operation", c.Operation))
		}
		if c.ID != "" {
			inner = append(inner, Term("changes.id", c.ID))
		}
		if c.Path != "" {
			inner = append(inner, Term("changes.path.keyword", c.Path))
		}
		if c.Before != "" {
			inner = append(inner, Term("changes.before.keyword", c.Before))
		}
		if c.After != "" {
			inner = append(inner, Term("changes.after.keyword", c.After))
		}
		inner = append(inner, metaPairClauses("changes.meta", c.Meta)...)
		if len(inner) > 0 {
			cands = append(cands, Nested("changes", MustAll(inner)))
		}
	}
	if len(cands) == 0 {
		return nil, false
	}
	return ShouldAny(cands), true
}

// metaPairClauses is the metadata combinator core: one independent nested
// clause per key/value pair. Each pair lives in its own nested array
// element in storage, so pairs can never share a single nested check.
// Keys are iterated in sorted order for deterministic output.
func metaPairClauses(path string, meta map[string]string) []Clause {
	if len(meta) == 0 {
		return nil
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Clause, 0, len(keys))
	for _, k := range keys {
		out = append(out, Nested(path, MustAll([]Clause{
			Term(path+".key", k),
			Term(path+".value.keyword", meta[k]),
		})))
	}
	return out
}

// metaClause ANDs the per-key checks within one candidate map and ORs
// across the candidate list.
func metaClause(path string, filters model.MetaFilters) (Clause, bool) {
	var cands []Clause
	for _, m := range filters {
		pairs := metaPairClauses(path, m)
		if len(pairs) > 0 {
			cands = append(cands, MustAll(pairs))
		}
	}
	if len(cands) == 0 {
		return nil, false
	}
	return ShouldAny(cands), true
}

// requestClause is the request combinator. A scalar value matches a
// top-level request field; a map value matches children one level under
// the parent key. Clauses within one candidate are AND'd, candidates OR'd.
func requestClause(filters model.RequestFilters) (Clause, bool) {
	var cands []Clause
	for _, rf := range filters {
		keys := make([]string, 0, len(rf))
		for k := range rf {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var inner []Clause
		for _, k := range keys {
			child, ok := asStringMap(rf[k])
			if !ok {
				inner = append(inner, Nested("request", MustAll([]Clause{
					Term("request.key", k),
					Term("request.value.keyword", document.Stringify(rf[k])),
				})))
				continue
			}
			childKeys := make([]string, 0, len(child))
			for ck := range child {
				childKeys = append(childKeys, ck)
			}
			sort.Strings(childKeys)
			for _, ck := range childKeys {
				inner = append(inner, Nested("request", MustAll([]Clause{
					Term("request.key", ck),
					Term("request.parent", k),
					Term("request.value.keyword", document.Stringify(child[ck])),
				})))
			}
		}
		if len(inner) > 0 {
			cands = append(cands, MustAll(inner))
		}
	}
	if len(cands) == 0 {
		return nil, false
	}
	return ShouldAny(cands), true
}

func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// responseClause combines status, latency range, and body/headers checks.
// body/headers intentionally flatten all pairs of one candidate map into a
// single shared nested clause rather than the per-key pattern used for
// metadata; see the body of sharedNested.
func responseClause(r *model.ResponseFilter) (Clause, bool) {
	if r == nil {
		return nil, false
	}
	var clauses []Clause
	if len(r.Status) == 1 {
		clauses = append(clauses, Term("response.status", r.Status[0]))
	} else if len(r.Status) > 1 {
		clauses = append(clauses, Terms("response.status", []int(r.Status)))
	}
	if r.Time != nil {
		bounds := map[string]any{}
		if r.Time.Gte != nil {
			bounds["gte"] = *r.Time.Gte
		}
		if r.Time.Lt != nil {
			bounds["lt"] = *r.Time.Lt
		}
		if len(bounds) > 0 {
			clauses = append(clauses, Range("response.time", bounds))
		}
	}
	if c, ok := sharedNested("response.body", r.Body); ok {
		clauses = append(clauses, c)
	}
	if c, ok := sharedNested("response.headers", r.Headers); ok {
		clauses = append(clauses, c)
	}
	if len(clauses) == 0 {
		return nil, false
	}
	return MustAll(clauses), true
}

// sharedNested puts every key term and value term of one candidate map
// into one nested bool.must. With more than one pair this would require a
// single array element to hold multiple key/value pairs at once, which the
// storage shape cannot produce; the single-key case is the one exercised.
// Kept as-is deliberately — see the open questions in DESIGN.md before
// changing it to the per-key pattern.
func sharedNested(path string, filters model.MetaFilters) (Clause, bool) {
	var cands []Clause
	for _, m := range filters {
		if len(m) == 0 {
			continue
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var terms []Clause
		for _, k := range keys {
			terms = append(terms,
				Term(path+".key", k),
				Term(path+".value.keyword", m[k]),
			)
		}
		cands = append(cands, Nested(path, MustAll(terms)))
	}
	if len(cands) == 0 {
		return nil, false
	}
	return ShouldAny(cands), true
}

// freeTextClause ORs a fixed battery of equality checks for the generic
// query string: identifier fields plus every flattened value field.
func freeTextClause(q string) Clause {
	should := []Clause{
		Term("id", q),
		Term("app", q),
		Term("environment", q),
		Term("framework.name", q),
		Term("sessionId", q),
		Term("traceIds", q),
		Term("action.id", q),
		Term("action.object.keyword", q),
		Nested("agents", ShouldAny([]Clause{
			Term("agents.id", q),
			Nested("agents.meta", Term("agents.meta.value.keyword", q)),
		})),
		Nested("targets", ShouldAny([]Clause{
			Term("targets.id", q),
			Nested("targets.meta", Term("targets.meta.value.keyword", q)),
		})),
		Nested("request", Term("request.value.keyword", q)),
		Nested("response.body", Term("response.body.value.keyword", q)),
		Nested("response.headers", Term("response.headers.value.keyword", q)),
		Nested("changes", ShouldAny([]Clause{
			Term("changes.id", q),
			Term("changes.path.keyword", q),
		})),
		Nested("meta", Term("meta.value.keyword", q)),
	}
	return Clause{"bool": map[string]any{"should": should}}
}
