// Package document converts between the caller-facing Action record and
// the storage document shape the search index accepts. The index mapping
// is fixed up front and its nested object fields cannot hold dynamically
// named properties, so every metadata map is flattened to a generic
// key/value list on write and rebuilt on read. Both directions produce new
// values; nothing is mutated in place.
package document

import (
	"time"

	"github.com/torii-ai/kansa/model"
)

// TimeFormat is the UTC millisecond ISO-8601 layout used for every
// timestamp written to the index.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Entity is the storage shape of an agent or target.
type Entity struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Meta []KV   `json:"meta,omitempty"`
}

// Response is the storage shape of an Action's response.
type Response struct {
	Status  *int     `json:"status,omitempty"`
	Time    *float64 `json:"time,omitempty"`
	Body    []KV     `json:"body,omitempty"`
	Headers []KV     `json:"headers,omitempty"`
}

// Change is the storage shape of a recorded change.
type Change struct {
	Model     string `json:"model"`
	Operation string `json:"operation"`
	ID        string `json:"id,omitempty"`
	Path      string `json:"path,omitempty"`
	Before    string `json:"before,omitempty"`
	After     string `json:"after,omitempty"`
	Meta      []KV   `json:"meta,omitempty"`
}

// Cost is the storage shape of an Action's cost.
type Cost struct {
	Amount     float64               `json:"amount"`
	Currency   string                `json:"currency"`
	Components []model.CostComponent `json:"components,omitempty"`
	Meta       []KV                  `json:"meta,omitempty"`
}

// Document is the engine-facing representation of an Action: identical
// shape except every metadata map is a []KV and request is a []RequestKV.
type Document struct {
	ID          string           `json:"id,omitempty"`
	Timestamp   string           `json:"timestamp"`
	CompanyID   string           `json:"companyId,omitempty"`
	ClientID    string           `json:"clientId,omitempty"`
	App         string           `json:"app,omitempty"`
	Environment string           `json:"environment,omitempty"`
	Framework   *model.Framework `json:"framework,omitempty"`
	SessionID   string           `json:"sessionId,omitempty"`
	TraceIDs    []string         `json:"traceIds,omitempty"`
	Action      model.ActionBody `json:"action"`
	Agents      []Entity         `json:"agents"`
	Targets     []Entity         `json:"targets,omitempty"`
	Request     []RequestKV      `json:"request,omitempty"`
	Response    *Response        `json:"response,omitempty"`
	Changes     []Change         `json:"changes,omitempty"`
	Cost        *Cost            `json:"cost,omitempty"`
	Meta        []KV             `json:"meta,omitempty"`
}

// FromAction serializes an Action into its storage document.
func FromAction(a model.Action) Document {
	doc := Document{
		ID:          a.ID,
		Timestamp:   a.Timestamp.UTC().Format(TimeFormat),
		CompanyID:   a.CompanyID,
		ClientID:    a.ClientID,
		App:         a.App,
		Environment: a.Environment,
		Framework:   a.Framework,
		SessionID:   a.SessionID,
		TraceIDs:    a.TraceIDs,
		Action:      a.Action,
		Agents:      flattenEntities(a.Agents),
		Targets:     flattenEntities(a.Targets),
		Request:     FlattenRequest(a.Request),
		Meta:        FlattenMap(a.Meta),
	}
	if a.Response != nil {
		doc.Response = &Response{
			Status:  a.Response.Status,
			Time:    a.Response.Time,
			Body:    FlattenMap(a.Response.Body),
			Headers: FlattenMap(a.Response.Headers),
		}
	}
	if len(a.Changes) > 0 {
		doc.Changes = make([]Change, len(a.Changes))
		for i, ch := range a.Changes {
			doc.Changes[i] = Change{
				Model:     ch.Model,
				Operation: ch.Operation,
				ID:        ch.ID,
				Path:      ch.Path,
				Before:    ch.Before,
				After:     ch.After,
				Meta:      FlattenMap(ch.Meta),
			}
		}
	}
	if a.Cost != nil {
		doc.Cost = &Cost{
			Amount:     a.Cost.Amount,
			Currency:   a.Cost.Currency,
			Components: a.Cost.Components,
			Meta:       FlattenMap(a.Cost.Meta),
		}
	}
	return doc
}

// ToAction deserializes a storage document back into an Action. A
// timestamp that fails to parse comes back zero rather than failing the
// whole read; the write path always produces the canonical format.
func (d Document) ToAction() model.Action {
	ts, err := time.Parse(TimeFormat, d.Timestamp)
	if err != nil {
		ts, _ = time.Parse(time.RFC3339, d.Timestamp)
	}
	a := model.Action{
		ID:          d.ID,
		Timestamp:   ts.UTC(),
		CompanyID:   d.CompanyID,
		ClientID:    d.ClientID,
		App:         d.App,
		Environment: d.Environment,
		Framework:   d.Framework,
		SessionID:   d.SessionID,
		TraceIDs:    d.TraceIDs,
		Action:      d.Action,
		Agents:      expandEntities(d.Agents),
		Targets:     expandEntities(d.Targets),
		Request:     ExpandRequest(d.Request),
		Meta:        ExpandList(d.Meta),
	}
	if d.Response != nil {
		a.Response = &model.Response{
			Status:  d.Response.Status,
			Time:    d.Response.Time,
			Body:    ExpandList(d.Response.Body),
			Headers: ExpandList(d.Response.Headers),
		}
	}
	if len(d.Changes) > 0 {
		a.Changes = make([]model.Change, len(d.Changes))
		for i, ch := range d.Changes {
			a.Changes[i] = model.Change{
				Model:     ch.Model,
				Operation: ch.Operation,
				ID:        ch.ID,
				Path:      ch.Path,
				Before:    ch.Before,
				After:     ch.After,
				Meta:      ExpandList(ch.Meta),
			}
		}
	}
	if d.Cost != nil {
		a.Cost = &model.Cost{
			Amount:     d.Cost.Amount,
			Currency:   d.Cost.Currency,
			Components: d.Cost.Components,
			Meta:       ExpandList(d.Cost.Meta),
		}
	}
	return a
}

func flattenEntities(entities []model.Entity) []Entity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]Entity, len(entities))
	for i, e := range entities {
		out[i] = Entity{ID: e.ID, Type: e.Type, Name: e.Name, Meta: FlattenMap(e.Meta)}
	}
	return out
}

func expandEntities(entities []Entity) []model.Entity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]model.Entity, len(entities))
	for i, e := range entities {
		out[i] = model.Entity{ID: e.ID, Type: e.Type, Name: e.Name, Meta: ExpandList(e.Meta)}
	}
	return out
}
