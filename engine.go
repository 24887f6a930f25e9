package backoffice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/havelihousing/backoffice/plugin"
	"github.com/havelihousing/backoffice/store"
)

// Engine runs the back-office operations against a Store.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	monthlyTarget int
	bcryptCost    int
	clock         func() time.Time
}

// New creates an Engine over s. The store is used as is; Start migrates it.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		plugins:       plugin.NewRegistry(),
		logger:        slog.Default(),
		monthlyTarget: 10,
		bcryptCost:    defaultBcryptCost,
		clock:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		if err := e.plugins.Register(p); err != nil {
			e.logger.Warn("plugin not registered", "plugin", p.Name(), "error", err)
		}
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithMonthlyTarget sets the sales target reported by EmployeePerformance.
func WithMonthlyTarget(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.monthlyTarget = n
		}
	}
}

// WithBcryptCost sets the password hashing cost. Tests lower it.
func WithBcryptCost(cost int) Option {
	return func(e *Engine) {
		e.bcryptCost = cost
	}
}

// WithClock replaces the time source used for booking dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return fmt.Errorf("backoffice: migrate: %w", err)
	}

	e.plugins.EmitInit(ctx)

	e.logger.Info("backoffice engine started",
		"plugins", len(e.plugins.Plugins()),
		"monthly_target", e.monthlyTarget,
	)
	return nil
}

// Stop notifies plugins and closes the store.
func (e *Engine) Stop(ctx context.Context) error {
	e.plugins.EmitShutdown(ctx)
	return e.store.Close()
}

// Health pings the store.
func (e *Engine) Health(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// Plugins exposes the registry so callers can register plugins after New.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}
