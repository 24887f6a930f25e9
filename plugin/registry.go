package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/user"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry holds registered plugins and caches them per hook so dispatch
// does no type assertions.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onBookingCreated       []OnBookingCreated
	onBookingRejected      []OnBookingRejected
	onBookingStatusChanged []OnBookingStatusChanged
	onPaymentRecorded      []OnPaymentRecorded
	onPropertyCreated      []OnPropertyCreated
	onPropertyUpdated      []OnPropertyUpdated
	onPropertyDeleted      []OnPropertyDeleted
	onEmployeeCreated      []OnEmployeeCreated
	onEmployeeUpdated      []OnEmployeeUpdated
	onUserRegistered       []OnUserRegistered
	onLoginFailed          []OnLoginFailed
}

func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin and caches the hooks it implements. Names must be
// unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}
	r.plugins = append(r.plugins, p)

	var hooks []string

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnBookingCreated); ok {
		r.onBookingCreated = append(r.onBookingCreated, v)
		hooks = append(hooks, "OnBookingCreated")
	}
	if v, ok := p.(OnBookingRejected); ok {
		r.onBookingRejected = append(r.onBookingRejected, v)
		hooks = append(hooks, "OnBookingRejected")
	}
	if v, ok := p.(OnBookingStatusChanged); ok {
		r.onBookingStatusChanged = append(r.onBookingStatusChanged, v)
		hooks = append(hooks, "OnBookingStatusChanged")
	}
	if v, ok := p.(OnPaymentRecorded); ok {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
		hooks = append(hooks, "OnPaymentRecorded")
	}
	if v, ok := p.(OnPropertyCreated); ok {
		r.onPropertyCreated = append(r.onPropertyCreated, v)
		hooks = append(hooks, "OnPropertyCreated")
	}
	if v, ok := p.(OnPropertyUpdated); ok {
		r.onPropertyUpdated = append(r.onPropertyUpdated, v)
		hooks = append(hooks, "OnPropertyUpdated")
	}
	if v, ok := p.(OnPropertyDeleted); ok {
		r.onPropertyDeleted = append(r.onPropertyDeleted, v)
		hooks = append(hooks, "OnPropertyDeleted")
	}
	if v, ok := p.(OnEmployeeCreated); ok {
		r.onEmployeeCreated = append(r.onEmployeeCreated, v)
		hooks = append(hooks, "OnEmployeeCreated")
	}
	if v, ok := p.(OnEmployeeUpdated); ok {
		r.onEmployeeUpdated = append(r.onEmployeeUpdated, v)
		hooks = append(hooks, "OnEmployeeUpdated")
	}
	if v, ok := p.(OnUserRegistered); ok {
		r.onUserRegistered = append(r.onUserRegistered, v)
		hooks = append(hooks, "OnUserRegistered")
	}
	if v, ok := p.(OnLoginFailed); ok {
		r.onLoginFailed = append(r.onLoginFailed, v)
		hooks = append(hooks, "OnLoginFailed")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"hooks", hooks,
	)
	return nil
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Get returns a plugin by name, or nil.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// dispatch calls fn for each hook in turn, bounding each call by the
// registry timeout and logging failures.
func dispatch[H Plugin](ctx context.Context, r *Registry, hook string, hooks []H, fn func(H) error) {
	for _, h := range hooks {
		if err := r.call(ctx, func() error { return fn(h) }); err != nil {
			r.logger.Warn("plugin hook failed",
				"plugin", h.Name(),
				"hook", hook,
				"error", err,
			)
		}
	}
}

func (r *Registry) call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin: timed out after %s", r.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// snapshot copies a hook list under the read lock.
func snapshot[H any](r *Registry, list *[]H) []H {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *list
}

func (r *Registry) EmitInit(ctx context.Context) {
	dispatch(ctx, r, "OnInit", snapshot(r, &r.onInit), func(h OnInit) error {
		return h.OnInit(ctx)
	})
}

func (r *Registry) EmitShutdown(ctx context.Context) {
	dispatch(ctx, r, "OnShutdown", snapshot(r, &r.onShutdown), func(h OnShutdown) error {
		return h.OnShutdown(ctx)
	})
}

func (r *Registry) EmitBookingCreated(ctx context.Context, b *booking.Booking, c *client.Client, clientCreated bool) {
	dispatch(ctx, r, "OnBookingCreated", snapshot(r, &r.onBookingCreated), func(h OnBookingCreated) error {
		return h.OnBookingCreated(ctx, b, c, clientCreated)
	})
}

func (r *Registry) EmitBookingRejected(ctx context.Context, propertyID id.PropertyID, plotNumber int) {
	dispatch(ctx, r, "OnBookingRejected", snapshot(r, &r.onBookingRejected), func(h OnBookingRejected) error {
		return h.OnBookingRejected(ctx, propertyID, plotNumber)
	})
}

func (r *Registry) EmitBookingStatusChanged(ctx context.Context, b *booking.Booking, from booking.Status) {
	dispatch(ctx, r, "OnBookingStatusChanged", snapshot(r, &r.onBookingStatusChanged), func(h OnBookingStatusChanged) error {
		return h.OnBookingStatusChanged(ctx, b, from)
	})
}

func (r *Registry) EmitPaymentRecorded(ctx context.Context, c *client.Client, cash, cheque decimal.Decimal) {
	dispatch(ctx, r, "OnPaymentRecorded", snapshot(r, &r.onPaymentRecorded), func(h OnPaymentRecorded) error {
		return h.OnPaymentRecorded(ctx, c, cash, cheque)
	})
}

func (r *Registry) EmitPropertyCreated(ctx context.Context, p *property.Property) {
	dispatch(ctx, r, "OnPropertyCreated", snapshot(r, &r.onPropertyCreated), func(h OnPropertyCreated) error {
		return h.OnPropertyCreated(ctx, p)
	})
}

func (r *Registry) EmitPropertyUpdated(ctx context.Context, p *property.Property) {
	dispatch(ctx, r, "OnPropertyUpdated", snapshot(r, &r.onPropertyUpdated), func(h OnPropertyUpdated) error {
		return h.OnPropertyUpdated(ctx, p)
	})
}

func (r *Registry) EmitPropertyDeleted(ctx context.Context, propertyID id.PropertyID) {
	dispatch(ctx, r, "OnPropertyDeleted", snapshot(r, &r.onPropertyDeleted), func(h OnPropertyDeleted) error {
		return h.OnPropertyDeleted(ctx, propertyID)
	})
}

func (r *Registry) EmitEmployeeCreated(ctx context.Context, e *employee.Employee) {
	dispatch(ctx, r, "OnEmployeeCreated", snapshot(r, &r.onEmployeeCreated), func(h OnEmployeeCreated) error {
		return h.OnEmployeeCreated(ctx, e)
	})
}

func (r *Registry) EmitEmployeeUpdated(ctx context.Context, e *employee.Employee) {
	dispatch(ctx, r, "OnEmployeeUpdated", snapshot(r, &r.onEmployeeUpdated), func(h OnEmployeeUpdated) error {
		return h.OnEmployeeUpdated(ctx, e)
	})
}

func (r *Registry) EmitUserRegistered(ctx context.Context, u *user.User) {
	dispatch(ctx, r, "OnUserRegistered", snapshot(r, &r.onUserRegistered), func(h OnUserRegistered) error {
		return h.OnUserRegistered(ctx, u)
	})
}

func (r *Registry) EmitLoginFailed(ctx context.Context, email string) {
	dispatch(ctx, r, "OnLoginFailed", snapshot(r, &r.onLoginFailed), func(h OnLoginFailed) error {
		return h.OnLoginFailed(ctx, email)
	})
}
