package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// StringList accepts either a bare JSON string or an array of strings.
// Filter fields that take "a value or a list of values" use this type; a
// bare value behaves as a one-element list.
type StringList []string

// UnmarshalJSON implements the scalar-or-array convention.
func (s *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '[' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// IntList is StringList for integers (response status filters).
type IntList []int

func (s *IntList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '[' {
		var one int
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = IntList{one}
		return nil
	}
	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// oneOrMany decodes either a single JSON object or an array of them.
func oneOrMany[T any](data []byte, out *[]T) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '[' {
		var one T
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*out = []T{one}
		return nil
	}
	var many []T
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*out = many
	return nil
}

// FrameworkFilter matches actions by emitting framework.
type FrameworkFilter struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// FrameworkFilters is a candidate list; candidates are OR'd together.
type FrameworkFilters []FrameworkFilter

func (f *FrameworkFilters) UnmarshalJSON(data []byte) error {
	return oneOrMany(data, (*[]FrameworkFilter)(f))
}

// ActionFilter matches on the action body's direct fields.
type ActionFilter struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`
	Verb   string `json:"verb,omitempty"`
	Object string `json:"object,omitempty"`
}

// ActionFilters is a candidate list; candidates are OR'd together.
type ActionFilters []ActionFilter

func (f *ActionFilters) UnmarshalJSON(data []byte) error {
	return oneOrMany(data, (*[]ActionFilter)(f))
}

// EntityFilter matches one agent or target. Meta entries each become an
// independent nested existence check against the entity's flattened
// metadata.
type EntityFilter struct {
	ID   string            `json:"id,omitempty"`
	Type string            `json:"type,omitempty"`
	Name string            `json:"name,omitempty"`
	Meta map[string]string `json:"meta,omitempty"`
}

// EntityFilters is a candidate list; candidates are OR'd together.
type EntityFilters []EntityFilter

func (f *EntityFilters) UnmarshalJSON(data []byte) error {
	return oneOrMany(data, (*[]EntityFilter)(f))
}

// ChangeFilter matches one recorded change.
type ChangeFilter struct {
	Model     string            `json:"model,omitempty"`
	Operation string            `json:"operation,omitempty"`
	ID        string            `json:"id,omitempty"`
	Path      string            `json:"path,omitempty"`
	Before    string            `json:"before,omitempty"`
	After     string            `json:"after,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// ChangeFilters is a candidate list; candidates are OR'd together.
type ChangeFilters []ChangeFilter

func (f *ChangeFilters) UnmarshalJSON(data []byte) error {
	return oneOrMany(data, (*[]ChangeFilter)(f))
}

// MetaFilter matches key/value pairs of a flattened metadata map. Each pair
// is an independent existence check; pairs within one filter are AND'd.
type MetaFilter map[string]string

// MetaFilters is a candidate list; candidates are OR'd together.
type MetaFilters []MetaFilter

func (f *MetaFilters) UnmarshalJSON(data []byte) error {
	return oneOrMany(data, (*[]MetaFilter)(f))
}

// RequestFilter matches flattened request fields. A string value matches a
// top-level scalar; a map value matches children one level below the key
// (e.g. {"params": {"storeId": "s1"}} matches params.storeId).
type RequestFilter map[string]any

// RequestFilters is a candidate list; candidates are OR'd together.
type RequestFilters []RequestFilter

func (f *RequestFilters) UnmarshalJSON(data []byte) error {
	return oneOrMany(data, (*[]RequestFilter)(f))
}

// TimeWindow bounds the response latency filter.
type TimeWindow struct {
	Gte *float64 `json:"gte,omitempty"`
	Lt  *float64 `json:"lt,omitempty"`
}

// ResponseFilter matches on the response sub-document.
type ResponseFilter struct {
	Status  IntList     `json:"status,omitempty"`
	Time    *TimeWindow `json:"time,omitempty"`
	Body    MetaFilters `json:"body,omitempty"`
	Headers MetaFilters `json:"headers,omitempty"`
}

// Filters is the full structured filter accepted by FindMany. CompanyID is
// required; everything else is optional. Start/End default to a six-month
// window ending now.
type Filters struct {
	CompanyID   string     `json:"companyId"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	ID          StringList `json:"id,omitempty"`
	ClientID    StringList `json:"clientId,omitempty"`
	App         StringList `json:"app,omitempty"`
	Environment StringList `json:"environment,omitempty"`
	SessionID   StringList `json:"sessionId,omitempty"`
	TraceIDs    StringList `json:"traceIds,omitempty"`

	Framework FrameworkFilters `json:"framework,omitempty"`
	Action    ActionFilters    `json:"action,omitempty"`
	Agents    EntityFilters    `json:"agents,omitempty"`
	Targets   EntityFilters    `json:"targets,omitempty"`
	Changes   ChangeFilters    `json:"changes,omitempty"`
	Request   RequestFilters   `json:"request,omitempty"`
	Response  *ResponseFilter  `json:"response,omitempty"`
	Meta      MetaFilters      `json:"meta,omitempty"`

	// Query is a free-text needle matched across identifier and metadata
	// value fields.
	Query string `json:"query,omitempty"`
}

// SearchOptions carries pagination and sorting; it never filters.
type SearchOptions struct {
	Page          int    `json:"page,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	SortBy        string `json:"sortBy,omitempty"`
	SortDirection string `json:"sortDirection,omitempty"`
}

// WithDefaults fills unset options: page 1, limit 25, sorted by timestamp
// descending.
func (o SearchOptions) WithDefaults() SearchOptions {
	if o.Page <= 0 {
		o.Page = 1
	}
	if o.Limit <= 0 {
		o.Limit = 25
	}
	if o.SortBy == "" {
		o.SortBy = "timestamp"
	}
	if o.SortDirection == "" {
		o.SortDirection = "desc"
	}
	return o
}
