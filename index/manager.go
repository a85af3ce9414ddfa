package index

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/torii-ai/kansa/internal/jsonx"
)

// MappingsClient is the slice of the search client the mapping lifecycle
// needs. The engine's full client satisfies it.
type MappingsClient interface {
	// GetIndexTemplate fetches a template body by name. found is false when
	// the template does not exist.
	GetIndexTemplate(ctx context.Context, name string) (body map[string]any, found bool, err error)
	PutIndexTemplate(ctx context.Context, name string, body map[string]any) error
	// Indices lists index names matching a wildcard pattern.
	Indices(ctx context.Context, pattern string) ([]string, error)
	// GetMapping fetches an index's current mappings object.
	GetMapping(ctx context.Context, index string) (map[string]any, error)
	// PutMapping issues an additive mapping update. Search engines only
	// allow adding fields, never removing or retyping them.
	PutMapping(ctx context.Context, index string, mappings map[string]any) error
}

// reconcileConcurrency bounds the per-index fan-out in ReconcileMappings.
const reconcileConcurrency = 8

// Manager reconciles the index template and live index mappings with the
// declared schema. All of its work is best-effort maintenance: failures
// are logged, never surfaced to create/find callers.
type Manager struct {
	client   MappingsClient
	router   Router
	template string
	shards   int
	replicas int
	logger   *slog.Logger

	ensure singleflight.Group
}

// NewManager wires a Manager. template names the index template to manage.
func NewManager(client MappingsClient, router Router, template string, shards, replicas int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client:   client,
		router:   router,
		template: template,
		shards:   shards,
		replicas: replicas,
		logger:   logger,
	}
}

// EnsureTemplate creates the index template if it is absent. A present
// template whose mappings drifted from the declared schema is logged and
// left untouched; template rewrites are destructive and never automatic.
// Concurrent calls are deduplicated so only one fetch/create runs.
func (m *Manager) EnsureTemplate(ctx context.Context) error {
	_, err, _ := m.ensure.Do("template", func() (any, error) {
		existing, found, err := m.client.GetIndexTemplate(ctx, m.template)
		if err != nil {
			return nil, fmt.Errorf("index: fetch template %q: %w", m.template, err)
		}
		if !found {
			body := Template(m.router.Wildcard(), m.shards, m.replicas)
			if err := m.client.PutIndexTemplate(ctx, m.template, body); err != nil {
				return nil, fmt.Errorf("index: create template %q: %w", m.template, err)
			}
			m.logger.Info("index: created template", "template", m.template, "pattern", m.router.Wildcard())
			return nil, nil
		}
		if !jsonx.DeepEqual(templateMappings(existing), Mappings()) {
			m.logger.Warn("index: template mappings drifted from declared schema, leaving untouched",
				"template", m.template)
		}
		return nil, nil
	})
	return err
}

// ReconcileMappings lists every index matching the naming pattern and
// issues an additive mapping update to any whose mappings drifted from the
// declared schema. Indices are reconciled concurrently; a failure on one
// index is logged and does not abort the others.
func (m *Manager) ReconcileMappings(ctx context.Context) error {
	indices, err := m.client.Indices(ctx, m.router.Wildcard())
	if err != nil {
		return fmt.Errorf("index: list indices %q: %w", m.router.Wildcard(), err)
	}

	declared := Mappings()
	var g errgroup.Group
	g.SetLimit(reconcileConcurrency)
	for _, idx := range indices {
		g.Go(func() error {
			current, err := m.client.GetMapping(ctx, idx)
			if err != nil {
				m.logger.Warn("index: fetch mapping failed", "index", idx, "error", err)
				return nil
			}
			if jsonx.DeepEqual(current, declared) {
				return nil
			}
			if err := m.client.PutMapping(ctx, idx, declared); err != nil {
				m.logger.Warn("index: mapping update failed", "index", idx, "error", err)
				return nil
			}
			m.logger.Info("index: updated mapping", "index", idx)
			return nil
		})
	}
	return g.Wait()
}

// templateMappings digs the mappings object out of a fetched template
// body, tolerating both the composable template shape and a bare mappings
// object.
func templateMappings(body map[string]any) map[string]any {
	if tpl, ok := body["template"].(map[string]any); ok {
		if m, ok := tpl["mappings"].(map[string]any); ok {
			return m
		}
	}
	if m, ok := body["mappings"].(map[string]any); ok {
		return m
	}
	return body
}
