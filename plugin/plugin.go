// Package plugin lets extensions observe back-office lifecycle events.
//
// A plugin implements Plugin plus any subset of the hook interfaces below.
// The Registry discovers the hooks once at registration and dispatches each
// event only to the plugins that asked for it. Hook errors are logged and
// never fail the operation that raised the event.
package plugin

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/user"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

type OnInit interface {
	Plugin
	OnInit(ctx context.Context) error
}

type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Booking hooks
// ──────────────────────────────────────────────────

// OnBookingCreated fires after a sale is persisted. clientCreated is true
// when the sale created the client record.
type OnBookingCreated interface {
	Plugin
	OnBookingCreated(ctx context.Context, b *booking.Booking, c *client.Client, clientCreated bool) error
}

// OnBookingRejected fires when a sale is refused because the plot is held.
type OnBookingRejected interface {
	Plugin
	OnBookingRejected(ctx context.Context, propertyID id.PropertyID, plotNumber int) error
}

type OnBookingStatusChanged interface {
	Plugin
	OnBookingStatusChanged(ctx context.Context, b *booking.Booking, from booking.Status) error
}

// ──────────────────────────────────────────────────
// Client hooks
// ──────────────────────────────────────────────────

type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, c *client.Client, cash, cheque decimal.Decimal) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

type OnPropertyCreated interface {
	Plugin
	OnPropertyCreated(ctx context.Context, p *property.Property) error
}

type OnPropertyUpdated interface {
	Plugin
	OnPropertyUpdated(ctx context.Context, p *property.Property) error
}

type OnPropertyDeleted interface {
	Plugin
	OnPropertyDeleted(ctx context.Context, propertyID id.PropertyID) error
}

type OnEmployeeCreated interface {
	Plugin
	OnEmployeeCreated(ctx context.Context, e *employee.Employee) error
}

type OnEmployeeUpdated interface {
	Plugin
	OnEmployeeUpdated(ctx context.Context, e *employee.Employee) error
}

// ──────────────────────────────────────────────────
// Account hooks
// ──────────────────────────────────────────────────

type OnUserRegistered interface {
	Plugin
	OnUserRegistered(ctx context.Context, u *user.User) error
}

// OnLoginFailed fires on a rejected login. The email is as submitted.
type OnLoginFailed interface {
	Plugin
	OnLoginFailed(ctx context.Context, email string) error
}
