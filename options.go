package kansa

import (
	"log/slog"
	"time"
)

// Option configures an Engine.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	cfg    Config
	logger *slog.Logger
	clock  func() time.Time
}

// WithConfig replaces the default configuration wholesale.
func WithConfig(cfg Config) Option {
	return func(o *resolvedOptions) { o.cfg = cfg }
}

// WithLogger sets the structured logger for the Engine.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithClock replaces the time source used for the implicit "now" in filter
// defaults and read routing. Intended for tests; defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *resolvedOptions) { o.clock = clock }
}

// WithReconcile toggles the background template/mapping reconciliation run
// at construction, overriding Config.Reconcile.
func WithReconcile(enabled bool) Option {
	return func(o *resolvedOptions) { o.cfg.Reconcile = enabled }
}
