package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torii-ai/kansa/model"
)

var testNow = time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

func TestCompile_CompanyOnly(t *testing.T) {
	clauses := Compile(model.Filters{CompanyID: "123"}, testNow)

	assert.Equal(t, []Clause{
		{"term": map[string]any{"companyId": "123"}},
		{"range": map[string]any{"timestamp": map[string]any{
			"gte": "2024-03-01T12:00:00.000Z",
			"lt":  "2024-09-01T12:00:00.000Z",
		}}},
	}, clauses)
}

func TestCompile_ExplicitBounds(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 8, 31, 23, 59, 59, 0, time.UTC)
	clauses := Compile(model.Filters{CompanyID: "123", Start: &start, End: &end}, testNow)

	assert.Equal(t, Clause{"range": map[string]any{"timestamp": map[string]any{
		"gte": "2024-07-01T00:00:00.000Z",
		"lt":  "2024-08-31T23:59:59.000Z",
	}}}, clauses[1])
}

func TestCompile_ScalarSets(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID:   "123",
		App:         model.StringList{"checkout"},
		Environment: model.StringList{"production", "staging"},
	}, testNow)

	require.Len(t, clauses, 4)
	assert.Equal(t, Clause{"terms": map[string]any{"app": []string{"checkout"}}}, clauses[2])
	assert.Equal(t, Clause{"terms": map[string]any{"environment": []string{"production", "staging"}}}, clauses[3])
}

func TestCompile_AgentWithMeta(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID: "123",
		Agents: model.EntityFilters{
			{Type: "USER", Meta: map[string]string{"clerkUserId": "clk_1"}},
		},
	}, testNow)

	require.Len(t, clauses, 3)
	assert.Equal(t, Clause{
		"nested": map[string]any{
			"path": "agents",
			"query": Clause{
				"bool": map[string]any{
					"must": []Clause{
						{"term": map[string]any{"agents.type": "USER"}},
						{"nested": map[string]any{
							"path": "agents.meta",
							"query": Clause{
								"bool": map[string]any{
									"must": []Clause{
										{"term": map[string]any{"agents.meta.key": "clerkUserId"}},
										{"term": map[string]any{"agents.meta.value.keyword": "clk_1"}},
									},
								},
							},
						}},
					},
				},
			},
		},
	}, clauses[2])
}

func TestCompile_RequestNestedChildren(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID: "123",
		Request: model.RequestFilters{
			{"params": map[string]any{"storeId": "s1", "transactionId": "t1"}},
		},
	}, testNow)

	require.Len(t, clauses, 3)

	storeClause := Clause{"nested": map[string]any{
		"path": "request",
		"query": Clause{"bool": map[string]any{"must": []Clause{
			{"term": map[string]any{"request.key": "storeId"}},
			{"term": map[string]any{"request.parent": "params"}},
			{"term": map[string]any{"request.value.keyword": "s1"}},
		}}},
	}}
	txClause := Clause{"nested": map[string]any{
		"path": "request",
		"query": Clause{"bool": map[string]any{"must": []Clause{
			{"term": map[string]any{"request.key": "transactionId"}},
			{"term": map[string]any{"request.parent": "params"}},
			{"term": map[string]any{"request.value.keyword": "t1"}},
		}}},
	}}
	assert.Equal(t, Clause{"bool": map[string]any{"must": []Clause{storeClause, txClause}}}, clauses[2])
}

func TestCompile_RequestScalar(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID: "123",
		Request:   model.RequestFilters{{"method": "POST"}},
	}, testNow)

	require.Len(t, clauses, 3)
	assert.Equal(t, Clause{"nested": map[string]any{
		"path": "request",
		"query": Clause{"bool": map[string]any{"must": []Clause{
			{"term": map[string]any{"request.key": "method"}},
			{"term": map[string]any{"request.value.keyword": "POST"}},
		}}},
	}}, clauses[2])
}

func TestCompile_SingletonCollapse(t *testing.T) {
	one := Compile(model.Filters{
		CompanyID: "123",
		Action:    model.ActionFilters{{Type: "http"}},
	}, testNow)
	// One candidate with one populated field: bare term, no bool wrapper.
	assert.Equal(t, Clause{"term": map[string]any{"action.type": "http"}}, one[2])

	two := Compile(model.Filters{
		CompanyID: "123",
		Action:    model.ActionFilters{{Type: "http"}, {Type: "rpc"}},
	}, testNow)
	// Two candidates: always a bool.should.
	assert.Equal(t, Clause{"bool": map[string]any{"should": []Clause{
		{"term": map[string]any{"action.type": "http"}},
		{"term": map[string]any{"action.type": "rpc"}},
	}}}, two[2])
}

func TestCompile_ObjectMatchUsesKeywordSibling(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID: "123",
		Action:    model.ActionFilters{{Verb: "POST", Object: "/v1/orders"}},
	}, testNow)

	assert.Equal(t, Clause{"bool": map[string]any{"must": []Clause{
		{"term": map[string]any{"action.verb": "POST"}},
		{"term": map[string]any{"action.object.keyword": "/v1/orders"}},
	}}}, clauses[2])
}

func TestCompile_ChangesKeywordFields(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID: "123",
		Changes:   model.ChangeFilters{{Model: "order", Path: "status"}},
	}, testNow)

	assert.Equal(t, Clause{"nested": map[string]any{
		"path": "changes",
		"query": Clause{"bool": map[string]any{"must": []Clause{
			{"term": map[string]any{"changes.model": "order"}},
			{"term": map[string]any{"changes.path.keyword": "status"}},
		}}},
	}}, clauses[2])
}

func TestCompile_MetaPairsAreIndependentNestedClauses(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID: "123",
		Meta:      model.MetaFilters{{"a": "1", "b": "2"}},
	}, testNow)

	require.Len(t, clauses, 3)
	pair := func(k, v string) Clause {
		return Clause{"nested": map[string]any{
			"path": "meta",
			"query": Clause{"bool": map[string]any{"must": []Clause{
				{"term": map[string]any{"meta.key": k}},
				{"term": map[string]any{"meta.value.keyword": v}},
			}}},
		}}
	}
	// Two keys: two nested clauses AND'd, never one shared nested check.
	assert.Equal(t, Clause{"bool": map[string]any{"must": []Clause{pair("a", "1"), pair("b", "2")}}}, clauses[2])
}

func TestCompile_ResponseSingleKeyBody(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID: "123",
		Response: &model.ResponseFilter{
			Status: model.IntList{500},
			Body:   model.MetaFilters{{"error": "timeout"}},
		},
	}, testNow)

	require.Len(t, clauses, 3)
	assert.Equal(t, Clause{"bool": map[string]any{"must": []Clause{
		{"term": map[string]any{"response.status": 500}},
		{"nested": map[string]any{
			"path": "response.body",
			"query": Clause{"bool": map[string]any{"must": []Clause{
				{"term": map[string]any{"response.body.key": "error"}},
				{"term": map[string]any{"response.body.value.keyword": "timeout"}},
			}}},
		}},
	}}}, clauses[2])
}

// Body/header maps with several keys share a single nested clause instead
// of the per-key pattern used for metadata. The storage shape cannot
// satisfy such a clause, but the behavior is pinned until the intent is
// clarified with real coverage.
func TestCompile_ResponseMultiKeySharedNested(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID: "123",
		Response: &model.ResponseFilter{
			Headers: model.MetaFilters{{"a": "1", "b": "2"}},
		},
	}, testNow)

	assert.Equal(t, Clause{"nested": map[string]any{
		"path": "response.headers",
		"query": Clause{"bool": map[string]any{"must": []Clause{
			{"term": map[string]any{"response.headers.key": "a"}},
			{"term": map[string]any{"response.headers.value.keyword": "1"}},
			{"term": map[string]any{"response.headers.key": "b"}},
			{"term": map[string]any{"response.headers.value.keyword": "2"}},
		}}},
	}}, clauses[2])
}

func TestCompile_ResponseTimeRange(t *testing.T) {
	gte, lt := 100.0, 500.0
	clauses := Compile(model.Filters{
		CompanyID: "123",
		Response:  &model.ResponseFilter{Time: &model.TimeWindow{Gte: &gte, Lt: &lt}},
	}, testNow)

	assert.Equal(t, Clause{"range": map[string]any{"response.time": map[string]any{
		"gte": 100.0,
		"lt":  500.0,
	}}}, clauses[2])
}

func TestCompile_FreeTextLast(t *testing.T) {
	clauses := Compile(model.Filters{
		CompanyID: "123",
		App:       model.StringList{"checkout"},
		Query:     "needle",
	}, testNow)

	last := clauses[len(clauses)-1]
	boolPart, ok := last["bool"].(map[string]any)
	require.True(t, ok)
	should, ok := boolPart["should"].([]Clause)
	require.True(t, ok)
	assert.Len(t, should, 15)
	assert.Equal(t, Clause{"term": map[string]any{"id": "needle"}}, should[0])
	assert.Equal(t, Clause{"nested": map[string]any{
		"path":  "meta",
		"query": Clause{"term": map[string]any{"meta.value.keyword": "needle"}},
	}}, should[14])
}

func TestCompile_Deterministic(t *testing.T) {
	f := model.Filters{
		CompanyID: "123",
		Meta:      model.MetaFilters{{"z": "9", "a": "1", "m": "5"}},
		Request:   model.RequestFilters{{"b": "2", "a": map[string]any{"y": "8", "x": "7"}}},
	}
	first := Compile(f, testNow)
	for range 10 {
		assert.Equal(t, first, Compile(f, testNow))
	}
}

func TestBuildSearchBody_Defaults(t *testing.T) {
	body := BuildSearchBody(model.SearchOptions{}, model.Filters{CompanyID: "123"}, testNow)

	assert.Equal(t, 0, body["from"])
	assert.Equal(t, 25, body["size"])
	assert.Equal(t, []any{map[string]any{"timestamp": map[string]any{"order": "desc"}}}, body["sort"])

	q := body["query"].(map[string]any)["bool"].(map[string]any)["must"].([]Clause)
	assert.Len(t, q, 2)
}

func TestBuildSearchBody_Pagination(t *testing.T) {
	body := BuildSearchBody(model.SearchOptions{Page: 3, Limit: 10, SortBy: "id", SortDirection: "asc"},
		model.Filters{CompanyID: "123"}, testNow)

	assert.Equal(t, 20, body["from"])
	assert.Equal(t, 10, body["size"])
	assert.Equal(t, []any{map[string]any{"id": map[string]any{"order": "asc"}}}, body["sort"])
}
