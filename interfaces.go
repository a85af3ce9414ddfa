package kansa

import (
	"context"
	"encoding/json"

	"github.com/torii-ai/kansa/index"
	"github.com/torii-ai/kansa/model"
)

// BulkItem is one document of a bulk write.
type BulkItem struct {
	Index    string
	ID       string
	Document any
}

// SearchHit is one matching document returned by a search.
type SearchHit struct {
	Index  string
	ID     string
	Source json.RawMessage
}

// SearchResult is the engine-agnostic shape of a search response.
type SearchResult struct {
	Total int64
	Hits  []SearchHit
}

// Client is the boundary to the external search cluster. Implementations
// wrap whatever transport/client library talks to the cluster; this core
// deliberately contains none. Requirements:
//
//   - Search must tolerate missing indices in the comma-joined list
//     (ignore-unavailable semantics) — read routing names monthly indices
//     that may not exist yet.
//   - Index with refresh=true must request synchronous visibility.
//   - Bulk is all-or-nothing at the request level; item-level outcomes are
//     the implementation's to surface as an error.
//   - All methods must be safe for concurrent use.
//
// Context deadlines and cancellation are threaded through unchanged; no
// retry is performed above this boundary.
type Client interface {
	Index(ctx context.Context, indexName, id string, doc any, refresh bool) error
	Bulk(ctx context.Context, items []BulkItem) error
	Search(ctx context.Context, indices string, body map[string]any) (SearchResult, error)

	index.MappingsClient
}

// StorageEngine is the storage capability this adapter provides.
type StorageEngine interface {
	CreateAction(ctx context.Context, a model.Action) (model.Action, error)
	CreateManyActions(ctx context.Context, actions []model.Action) ([]model.Action, error)
	FindMany(ctx context.Context, opts model.SearchOptions, f model.Filters) ([]model.Action, error)
	FindByID(ctx context.Context, id string) (model.Action, error)
}
