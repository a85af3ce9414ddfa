package document

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torii-ai/kansa/model"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func sampleAction() model.Action {
	return model.Action{
		ID:          "act_1",
		Timestamp:   time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC),
		CompanyID:   "123",
		ClientID:    "client_1",
		App:         "checkout",
		Environment: "production",
		Framework:   &model.Framework{Name: "express", Version: "4.18.2"},
		SessionID:   "sess_1",
		TraceIDs:    []string{"trace_1", "trace_2"},
		Action: model.ActionBody{
			ID:     "evt_1",
			Type:   "http",
			Verb:   "POST",
			Object: "/v1/orders",
		},
		Agents: []model.Entity{
			{ID: "agent_1", Type: "USER", Name: "alice", Meta: map[string]any{"clerkUserId": "clk_1"}},
		},
		Targets: []model.Entity{
			{ID: "order_1", Type: "ORDER", Meta: map[string]any{"total": "99.90"}},
		},
		Request: map[string]any{
			"method": "POST",
			"params": map[string]any{"storeId": "s1"},
		},
		Response: &model.Response{
			Status:  intPtr(201),
			Time:    floatPtr(42.0),
			Body:    map[string]any{"orderId": "order_1"},
			Headers: map[string]any{"content-type": "application/json"},
		},
		Changes: []model.Change{
			{Model: "order", Operation: "create", ID: "order_1", Path: "status", After: "created",
				Meta: map[string]any{"source": "api"}},
		},
		Cost: &model.Cost{
			Amount:   0.25,
			Currency: "USD",
			Components: []model.CostComponent{
				{Type: "llm", Key: "prompt", Amount: 0.15},
				{Key: "completion", Amount: 0.10},
			},
			Meta: map[string]any{"provider": "acme"},
		},
		Meta: map[string]any{"region": "eu-west-1"},
	}
}

func TestRoundTrip_StringLeaves(t *testing.T) {
	a := sampleAction()
	got := FromAction(a).ToAction()
	assert.Equal(t, a, got)
}

func TestRoundTrip_NonStringLeavesStringified(t *testing.T) {
	a := sampleAction()
	a.Meta = map[string]any{"count": 3, "flag": true, "obj": map[string]any{"k": "v"}}

	got := FromAction(a).ToAction()
	assert.Equal(t, map[string]any{
		"count": "3",
		"flag":  "true",
		"obj":   `{"k":"v"}`,
	}, got.Meta)

	// Idempotent once stringified: a second round trip changes nothing.
	again := FromAction(got).ToAction()
	assert.Equal(t, got, again)
}

func TestFromAction_TimestampUTCFormat(t *testing.T) {
	a := sampleAction()
	loc := time.FixedZone("CEST", 2*60*60)
	a.Timestamp = time.Date(2024, 7, 15, 12, 30, 0, 0, loc)

	doc := FromAction(a)
	assert.Equal(t, "2024-07-15T10:30:00.000Z", doc.Timestamp)
}

func TestFromAction_MetadataBecomesLists(t *testing.T) {
	doc := FromAction(sampleAction())

	assert.Equal(t, []KV{{Key: "clerkUserId", Value: "clk_1"}}, doc.Agents[0].Meta)
	assert.Equal(t, []KV{{Key: "region", Value: "eu-west-1"}}, doc.Meta)
	assert.Equal(t, []RequestKV{
		{Key: "method", Value: "POST"},
		{Key: "storeId", Parent: "params", Value: "s1"},
	}, doc.Request)
	require.NotNil(t, doc.Response)
	assert.Equal(t, []KV{{Key: "orderId", Value: "order_1"}}, doc.Response.Body)
}

func TestDocument_JSONShape(t *testing.T) {
	doc := FromAction(sampleAction())
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	agents, ok := m["agents"].([]any)
	require.True(t, ok)
	meta := agents[0].(map[string]any)["meta"].([]any)
	assert.Equal(t, map[string]any{"key": "clerkUserId", "value": "clk_1"}, meta[0])

	req := m["request"].([]any)
	assert.Equal(t, map[string]any{"key": "storeId", "parent": "params", "value": "s1"}, req[1])
}

func TestToAction_UnparsableTimestamp(t *testing.T) {
	d := Document{Timestamp: "not-a-time", Action: model.ActionBody{Type: "t", Verb: "v"}}
	a := d.ToAction()
	assert.True(t, a.Timestamp.IsZero())
}
