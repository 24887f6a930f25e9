// Package audithook turns back-office lifecycle events into audit records.
//
// The package defines its own Recorder so any audit backend can be plugged
// in with a RecorderFunc. LogRecorder writes records to a slog.Logger and is
// what the CLI wires by default.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/plugin"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/user"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnBookingCreated       = (*Extension)(nil)
	_ plugin.OnBookingRejected      = (*Extension)(nil)
	_ plugin.OnBookingStatusChanged = (*Extension)(nil)
	_ plugin.OnPaymentRecorded      = (*Extension)(nil)
	_ plugin.OnPropertyCreated      = (*Extension)(nil)
	_ plugin.OnPropertyUpdated      = (*Extension)(nil)
	_ plugin.OnPropertyDeleted      = (*Extension)(nil)
	_ plugin.OnEmployeeCreated      = (*Extension)(nil)
	_ plugin.OnEmployeeUpdated      = (*Extension)(nil)
	_ plugin.OnUserRegistered       = (*Extension)(nil)
	_ plugin.OnLoginFailed          = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges lifecycle events to a Recorder.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Booking hooks
// ──────────────────────────────────────────────────

// OnBookingCreated records the booking and, separately, what happened to
// the client: created by this sale or merged into.
func (e *Extension) OnBookingCreated(ctx context.Context, b *booking.Booking, c *client.Client, clientCreated bool) error {
	e.record(ctx, ActionBookingCreated, SeverityInfo, OutcomeSuccess,
		ResourceBooking, b.ID.String(), CategorySales, "",
		"property_id", b.PropertyID.String(),
		"plot_number", b.PlotNumber,
		"amount", b.Amount.String(),
		"client_id", b.ClientID.String(),
		"saled_by", b.SaledBy.String(),
	)

	action := ActionClientMerged
	if clientCreated {
		action = ActionClientCreated
	}
	e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceClient, c.ID.String(), CategorySales, "",
		"booking_id", b.ID.String(),
		"total", c.Payment.Total.String(),
		"remaining", c.Payment.Remaining.String(),
	)
	return nil
}

// OnBookingRejected implements plugin.OnBookingRejected.
func (e *Extension) OnBookingRejected(ctx context.Context, propertyID id.PropertyID, plotNumber int) error {
	e.record(ctx, ActionBookingRejected, SeverityWarning, OutcomeFailure,
		ResourceBooking, "", CategorySales, "plot is already booked",
		"property_id", propertyID.String(),
		"plot_number", plotNumber,
	)
	return nil
}

// OnBookingStatusChanged implements plugin.OnBookingStatusChanged.
func (e *Extension) OnBookingStatusChanged(ctx context.Context, b *booking.Booking, from booking.Status) error {
	e.record(ctx, ActionBookingStatusChanged, SeverityInfo, OutcomeSuccess,
		ResourceBooking, b.ID.String(), CategorySales, "",
		"from", string(from),
		"to", string(b.Status),
	)
	return nil
}

// ──────────────────────────────────────────────────
// Client hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded records the payment, plus a settlement event when the
// payment completed the client's ledger.
func (e *Extension) OnPaymentRecorded(ctx context.Context, c *client.Client, cash, cheque decimal.Decimal) error {
	e.record(ctx, ActionPaymentRecorded, SeverityInfo, OutcomeSuccess,
		ResourceClient, c.ID.String(), CategoryPayment, "",
		"cash", cash.String(),
		"cheque", cheque.String(),
		"remaining", c.Payment.Remaining.String(),
	)
	if c.Status == client.StatusCompleted {
		e.record(ctx, ActionClientSettled, SeverityInfo, OutcomeSuccess,
			ResourceClient, c.ID.String(), CategoryPayment, "",
			"total", c.Payment.Total.String(),
		)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

func (e *Extension) OnPropertyCreated(ctx context.Context, p *property.Property) error {
	e.record(ctx, ActionPropertyCreated, SeverityInfo, OutcomeSuccess,
		ResourceProperty, p.ID.String(), CategoryCatalog, "",
		"rera_number", p.RERANumber,
		"total_plots", p.TotalPlots,
	)
	return nil
}

func (e *Extension) OnPropertyUpdated(ctx context.Context, p *property.Property) error {
	e.record(ctx, ActionPropertyUpdated, SeverityInfo, OutcomeSuccess,
		ResourceProperty, p.ID.String(), CategoryCatalog, "",
		"rera_number", p.RERANumber,
	)
	return nil
}

func (e *Extension) OnPropertyDeleted(ctx context.Context, propertyID id.PropertyID) error {
	e.record(ctx, ActionPropertyDeleted, SeverityWarning, OutcomeSuccess,
		ResourceProperty, propertyID.String(), CategoryCatalog, "",
	)
	return nil
}

func (e *Extension) OnEmployeeCreated(ctx context.Context, emp *employee.Employee) error {
	e.record(ctx, ActionEmployeeCreated, SeverityInfo, OutcomeSuccess,
		ResourceEmployee, emp.ID.String(), CategoryCatalog, "",
		"rera_number", emp.RERANumber,
	)
	return nil
}

func (e *Extension) OnEmployeeUpdated(ctx context.Context, emp *employee.Employee) error {
	e.record(ctx, ActionEmployeeUpdated, SeverityInfo, OutcomeSuccess,
		ResourceEmployee, emp.ID.String(), CategoryCatalog, "",
		"total_sales", emp.TotalSales,
	)
	return nil
}

// ──────────────────────────────────────────────────
// Account hooks
// ──────────────────────────────────────────────────

func (e *Extension) OnUserRegistered(ctx context.Context, u *user.User) error {
	e.record(ctx, ActionUserRegistered, SeverityInfo, OutcomeSuccess,
		ResourceUser, u.ID.String(), CategoryAccess, "",
	)
	return nil
}

// OnLoginFailed records the attempted email. Repeated failures are the
// caller's concern; each attempt is one event.
func (e *Extension) OnLoginFailed(ctx context.Context, email string) error {
	e.record(ctx, ActionLoginFailed, SeverityWarning, OutcomeFailure,
		ResourceUser, "", CategoryAccess, "invalid email or password",
		"email", email,
	)
	return nil
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled. Recorder
// failures are logged; the lifecycle operation already succeeded.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category, reason string,
	kvPairs ...any,
) {
	if e.enabled != nil && !e.enabled[action] {
		return
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if err := e.recorder.Record(ctx, evt); err != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", err,
		)
	}
}
