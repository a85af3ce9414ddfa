// Package kansa is a storage-engine adapter that maps schema-flexible
// Action audit records onto a search-engine index and compiles structured
// filters into the engine's nested boolean query language. The wire
// transport is supplied by the caller behind the Client interface; this
// package orchestrates the document codec, filter compiler, index router,
// and mapping lifecycle around it.
package kansa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/torii-ai/kansa/document"
	"github.com/torii-ai/kansa/index"
	"github.com/torii-ai/kansa/model"
	"github.com/torii-ai/kansa/query"
)

// Engine is the concrete StorageEngine backed by an external search
// cluster. Safe for concurrent use; it holds no mutable state beyond the
// injected client.
type Engine struct {
	client   Client
	cfg      Config
	router   index.Router
	mappings *index.Manager
	logger   *slog.Logger
	clock    func() time.Time

	actionsIndexed metric.Int64Counter
	searchesRun    metric.Int64Counter
}

var _ StorageEngine = (*Engine)(nil)

// New wires an Engine around client. When reconciliation is enabled the
// template ensure and mapping reconcile run once in a background
// goroutine; they never block or fail construction.
func New(client Client, opts ...Option) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("kansa: client is required")
	}
	o := resolvedOptions{
		cfg:    DefaultConfig(),
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	router := index.NewRouter(o.cfg.IndexPattern)
	e := &Engine{
		client:   client,
		cfg:      o.cfg,
		router:   router,
		mappings: index.NewManager(client, router, o.cfg.TemplateName, o.cfg.Shards, o.cfg.Replicas, o.logger),
		logger:   o.logger,
		clock:    o.clock,
	}
	e.registerMetrics()

	if o.cfg.Reconcile {
		go e.reconcile(context.Background())
	}
	return e, nil
}

func (e *Engine) registerMetrics() {
	meter := otel.Meter("github.com/torii-ai/kansa")
	var err error
	e.actionsIndexed, err = meter.Int64Counter("kansa.actions.indexed",
		metric.WithDescription("Actions written to the search index"))
	if err != nil {
		e.logger.Warn("kansa: register actions counter failed", "error", err)
	}
	e.searchesRun, err = meter.Int64Counter("kansa.searches.run",
		metric.WithDescription("FindMany searches executed"))
	if err != nil {
		e.logger.Warn("kansa: register searches counter failed", "error", err)
	}
}

// reconcile is the fire-and-forget maintenance pass. Failures are logged
// and swallowed; maintenance must never surface to a create/find caller.
func (e *Engine) reconcile(ctx context.Context) {
	if err := e.mappings.EnsureTemplate(ctx); err != nil {
		e.logger.Warn("kansa: ensure template failed", "error", err)
	}
	if err := e.mappings.ReconcileMappings(ctx); err != nil {
		e.logger.Warn("kansa: reconcile mappings failed", "error", err)
	}
}

// CreateAction validates, serializes, and indexes a single action,
// requesting synchronous visibility when configured. The returned Action
// carries the assigned ID; the input is never mutated.
func (e *Engine) CreateAction(ctx context.Context, a model.Action) (model.Action, error) {
	if err := a.Validate(); err != nil {
		return model.Action{}, err
	}
	if a.CompanyID == "" {
		return model.Action{}, fmt.Errorf("kansa: action companyId is required")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	idx := e.router.Write(a.CompanyID, a.Timestamp)
	if err := e.client.Index(ctx, idx, a.ID, document.FromAction(a), e.cfg.Refresh); err != nil {
		e.logger.Error("kansa: index action failed", "index", idx, "id", a.ID, "error", err)
		return model.Action{}, fmt.Errorf("kansa: index action: %w", err)
	}
	if e.actionsIndexed != nil {
		e.actionsIndexed.Add(ctx, 1)
	}
	return a, nil
}

// CreateManyActions bulk-writes a batch. Every item is validated before
// any network call; one invalid item rejects the whole batch with nothing
// applied.
func (e *Engine) CreateManyActions(ctx context.Context, actions []model.Action) ([]model.Action, error) {
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("kansa: actions[%d]: %w", i, err)
		}
		if a.CompanyID == "" {
			return nil, fmt.Errorf("kansa: actions[%d]: companyId is required", i)
		}
	}
	if len(actions) == 0 {
		return nil, nil
	}

	out := make([]model.Action, len(actions))
	items := make([]BulkItem, len(actions))
	for i, a := range actions {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		out[i] = a
		items[i] = BulkItem{
			Index:    e.router.Write(a.CompanyID, a.Timestamp),
			ID:       a.ID,
			Document: document.FromAction(a),
		}
	}
	if err := e.client.Bulk(ctx, items); err != nil {
		e.logger.Error("kansa: bulk index failed", "count", len(items), "error", err)
		return nil, fmt.Errorf("kansa: bulk index %d actions: %w", len(items), err)
	}
	if e.actionsIndexed != nil {
		e.actionsIndexed.Add(ctx, int64(len(items)))
	}
	return out, nil
}

// FindMany compiles the filters, resolves the monthly indices covering the
// filter window, and returns the matching Actions deserialized from
// storage documents.
func (e *Engine) FindMany(ctx context.Context, opts model.SearchOptions, f model.Filters) ([]model.Action, error) {
	if f.CompanyID == "" {
		return nil, fmt.Errorf("kansa: companyId filter is required")
	}
	now := e.clock().UTC()
	body := query.BuildSearchBody(opts, f, now)
	indices := e.router.Read(f.CompanyID, f.Start, f.End, now)

	res, err := e.client.Search(ctx, indices, body)
	if err != nil {
		e.logger.Error("kansa: search failed", "indices", indices, "error", err)
		return nil, fmt.Errorf("kansa: search: %w", err)
	}
	if e.searchesRun != nil {
		e.searchesRun.Add(ctx, 1)
	}

	actions := make([]model.Action, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var doc document.Document
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("kansa: decode hit %s/%s: %w", hit.Index, hit.ID, err)
		}
		actions = append(actions, doc.ToAction())
	}
	return actions, nil
}

// FindByID is not implemented by this adapter.
func (e *Engine) FindByID(ctx context.Context, id string) (model.Action, error) {
	return model.Action{}, ErrNotImplemented
}

// BuildFindManyQuery exposes the compiled search body for composability
// and testing; FindMany uses the identical construction.
func (e *Engine) BuildFindManyQuery(opts model.SearchOptions, f model.Filters) map[string]any {
	return query.BuildSearchBody(opts, f, e.clock().UTC())
}

// SerializeAction converts an Action to its storage document. Exposed for
// composability and testing; every write goes through it.
func SerializeAction(a model.Action) document.Document {
	return document.FromAction(a)
}

// DeserializeAction converts a storage document back to an Action. Lossy
// for non-string metadata leaf types, which come back in their JSON-string
// form; that is the storage contract, not a defect.
func DeserializeAction(d document.Document) model.Action {
	return d.ToAction()
}
