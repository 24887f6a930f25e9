// Package observability counts back-office lifecycle events.
//
// MetricsExtension is a plugin that increments counters and observes amount
// histograms created by a MetricFactory. PrometheusFactory backs the factory
// with client_golang collectors; HTTPMetrics instruments the API.
package observability

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/plugin"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/user"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnBookingCreated       = (*MetricsExtension)(nil)
	_ plugin.OnBookingRejected      = (*MetricsExtension)(nil)
	_ plugin.OnBookingStatusChanged = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded      = (*MetricsExtension)(nil)
	_ plugin.OnPropertyCreated      = (*MetricsExtension)(nil)
	_ plugin.OnPropertyUpdated      = (*MetricsExtension)(nil)
	_ plugin.OnPropertyDeleted      = (*MetricsExtension)(nil)
	_ plugin.OnEmployeeCreated      = (*MetricsExtension)(nil)
	_ plugin.OnEmployeeUpdated      = (*MetricsExtension)(nil)
	_ plugin.OnUserRegistered       = (*MetricsExtension)(nil)
	_ plugin.OnLoginFailed          = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records back-office lifecycle metrics.
type MetricsExtension struct {
	// Booking metrics
	BookingsCreated   Counter
	BookingsRejected  Counter
	BookingsConfirmed Counter
	BookingsCancelled Counter
	BookingsReopened  Counter
	BookingAmount     Histogram

	// Client metrics
	ClientsCreated   Counter
	ClientsMerged    Counter
	ClientsSettled   Counter
	PaymentsRecorded Counter
	PaymentAmount    Histogram

	// Catalog metrics
	PropertiesCreated Counter
	PropertiesUpdated Counter
	PropertiesDeleted Counter
	EmployeesCreated  Counter
	EmployeesUpdated  Counter

	// Account metrics
	UsersRegistered Counter
	LoginsFailed    Counter
}

// NewMetricsExtension creates a MetricsExtension whose metrics come from
// factory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		BookingsCreated:   factory.Counter("backoffice.bookings.created"),
		BookingsRejected:  factory.Counter("backoffice.bookings.rejected"),
		BookingsConfirmed: factory.Counter("backoffice.bookings.confirmed"),
		BookingsCancelled: factory.Counter("backoffice.bookings.cancelled"),
		BookingsReopened:  factory.Counter("backoffice.bookings.reopened"),
		BookingAmount:     factory.Histogram("backoffice.booking.amount_rupees"),

		ClientsCreated:   factory.Counter("backoffice.clients.created"),
		ClientsMerged:    factory.Counter("backoffice.clients.merged"),
		ClientsSettled:   factory.Counter("backoffice.clients.settled"),
		PaymentsRecorded: factory.Counter("backoffice.payments.recorded"),
		PaymentAmount:    factory.Histogram("backoffice.payment.amount_rupees"),

		PropertiesCreated: factory.Counter("backoffice.properties.created"),
		PropertiesUpdated: factory.Counter("backoffice.properties.updated"),
		PropertiesDeleted: factory.Counter("backoffice.properties.deleted"),
		EmployeesCreated:  factory.Counter("backoffice.employees.created"),
		EmployeesUpdated:  factory.Counter("backoffice.employees.updated"),

		UsersRegistered: factory.Counter("backoffice.users.registered"),
		LoginsFailed:    factory.Counter("backoffice.logins.failed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ──────────────────────────────────────────────────
// Booking hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnBookingCreated(_ context.Context, b *booking.Booking, _ *client.Client, clientCreated bool) error {
	m.BookingsCreated.Inc()
	m.BookingAmount.Observe(b.Amount.InexactFloat64())
	if clientCreated {
		m.ClientsCreated.Inc()
	} else {
		m.ClientsMerged.Inc()
	}
	return nil
}

func (m *MetricsExtension) OnBookingRejected(_ context.Context, _ id.PropertyID, _ int) error {
	m.BookingsRejected.Inc()
	return nil
}

// OnBookingStatusChanged counts transitions by their target status. A move
// back to pending counts as a reopen.
func (m *MetricsExtension) OnBookingStatusChanged(_ context.Context, b *booking.Booking, _ booking.Status) error {
	switch b.Status {
	case booking.StatusConfirmed:
		m.BookingsConfirmed.Inc()
	case booking.StatusCancelled:
		m.BookingsCancelled.Inc()
	case booking.StatusPending:
		m.BookingsReopened.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Client hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, c *client.Client, cash, cheque decimal.Decimal) error {
	m.PaymentsRecorded.Inc()
	m.PaymentAmount.Observe(cash.Add(cheque).InexactFloat64())
	if c.Status == client.StatusCompleted {
		m.ClientsSettled.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnPropertyCreated(context.Context, *property.Property) error {
	m.PropertiesCreated.Inc()
	return nil
}

func (m *MetricsExtension) OnPropertyUpdated(context.Context, *property.Property) error {
	m.PropertiesUpdated.Inc()
	return nil
}

func (m *MetricsExtension) OnPropertyDeleted(context.Context, id.PropertyID) error {
	m.PropertiesDeleted.Inc()
	return nil
}

func (m *MetricsExtension) OnEmployeeCreated(context.Context, *employee.Employee) error {
	m.EmployeesCreated.Inc()
	return nil
}

func (m *MetricsExtension) OnEmployeeUpdated(context.Context, *employee.Employee) error {
	m.EmployeesUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Account hooks
// ──────────────────────────────────────────────────

func (m *MetricsExtension) OnUserRegistered(context.Context, *user.User) error {
	m.UsersRegistered.Inc()
	return nil
}

func (m *MetricsExtension) OnLoginFailed(context.Context, string) error {
	m.LoginsFailed.Inc()
	return nil
}
