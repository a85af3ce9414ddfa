// Package model defines the canonical Action record exchanged with callers,
// its validation rules, and the filter/search-option types accepted by the
// query layer. An Action is constructed by the caller, serialized once for
// writing, and never mutated by the engine.
package model

import (
	"fmt"
	"time"
)

// Framework identifies the instrumentation framework that emitted an Action.
type Framework struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// ActionBody describes what happened: a verb applied to an object type.
type ActionBody struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`
	Verb   string `json:"verb"`
	Object string `json:"object,omitempty"`
}

// Entity is an actor (agent) or subject (target) of an Action.
// Meta holds arbitrary caller-defined attributes; non-string values are
// JSON-encoded when stored.
type Entity struct {
	ID   string         `json:"id,omitempty"`
	Type string         `json:"type"`
	Name string         `json:"name,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Response captures the outcome of the request an Action describes.
type Response struct {
	Status  *int           `json:"status,omitempty"`
	Time    *float64       `json:"time,omitempty"`
	Body    map[string]any `json:"body,omitempty"`
	Headers map[string]any `json:"headers,omitempty"`
}

// Change records a single mutation applied to a model as part of an Action.
type Change struct {
	Model     string         `json:"model"`
	Operation string         `json:"operation"`
	ID        string         `json:"id,omitempty"`
	Path      string         `json:"path,omitempty"`
	Before    string         `json:"before,omitempty"`
	After     string         `json:"after,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// CostComponent is one line item of an Action's cost.
type CostComponent struct {
	Type   string  `json:"type,omitempty"`
	Key    string  `json:"key"`
	Amount float64 `json:"amount"`
}

// Cost is the monetary cost attributed to an Action.
type Cost struct {
	Amount     float64         `json:"amount"`
	Currency   string          `json:"currency"`
	Components []CostComponent `json:"components,omitempty"`
	Meta       map[string]any  `json:"meta,omitempty"`
}

// Action is the canonical event/audit record. Request holds arbitrary JSON
// with at most one level of nested sub-objects; deeper nesting is not
// modeled by the storage layer.
type Action struct {
	ID          string         `json:"id,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	CompanyID   string         `json:"companyId,omitempty"`
	ClientID    string         `json:"clientId,omitempty"`
	App         string         `json:"app,omitempty"`
	Environment string         `json:"environment,omitempty"`
	Framework   *Framework     `json:"framework,omitempty"`
	SessionID   string         `json:"sessionId,omitempty"`
	TraceIDs    []string       `json:"traceIds,omitempty"`
	Action      ActionBody     `json:"action"`
	Agents      []Entity       `json:"agents"`
	Targets     []Entity       `json:"targets,omitempty"`
	Request     map[string]any `json:"request,omitempty"`
	Response    *Response      `json:"response,omitempty"`
	Changes     []Change       `json:"changes,omitempty"`
	Cost        *Cost          `json:"cost,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Validate checks that an Action is well-formed enough to index.
// Called before any network I/O; a batch write validates every item first
// and rejects the whole batch on the first failure.
func (a Action) Validate() error {
	if a.Timestamp.IsZero() {
		return fmt.Errorf("model: action timestamp is required")
	}
	if a.Action.Type == "" {
		return fmt.Errorf("model: action.type is required")
	}
	if a.Action.Verb == "" {
		return fmt.Errorf("model: action.verb is required")
	}
	if len(a.Agents) == 0 {
		return fmt.Errorf("model: at least one agent is required")
	}
	for i, ag := range a.Agents {
		if ag.Type == "" {
			return fmt.Errorf("model: agents[%d].type is required", i)
		}
	}
	for i, tg := range a.Targets {
		if tg.Type == "" {
			return fmt.Errorf("model: targets[%d].type is required", i)
		}
	}
	for i, ch := range a.Changes {
		if ch.Model == "" {
			return fmt.Errorf("model: changes[%d].model is required", i)
		}
		if ch.Operation == "" {
			return fmt.Errorf("model: changes[%d].operation is required", i)
		}
	}
	if a.Cost != nil && a.Cost.Currency == "" {
		return fmt.Errorf("model: cost.currency is required")
	}
	return nil
}
