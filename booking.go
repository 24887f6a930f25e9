package backoffice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/types"
)

// ──────────────────────────────────────────────────
// Booking engine
// ──────────────────────────────────────────────────

// CreateBooking records a sale of one plot, made by actor.
//
// The property must exist and the plot must not be held by a pending or
// confirmed booking. The client is found by aadhar number or created with
// the request's ledger; an existing client has the request's ledger merged
// into its running total. Client and booking are written in one atomic
// store call, and the store's uniqueness constraint on active plots is the
// final word on conflicts.
func (e *Engine) CreateBooking(ctx context.Context, actor id.UserID, req booking.Request) (*booking.Result, error) {
	if err := validateBookingRequest(req); err != nil {
		return nil, err
	}

	propertyID, err := ParsePropertyRef(req.PropertyID)
	if err != nil {
		return nil, err
	}

	prop, err := e.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !prop.HasPlot(req.PlotNumber) {
		return nil, ValidationError{
			Field:   "plot_number",
			Message: fmt.Sprintf("plot_number must be between 1 and %d", prop.TotalPlots),
		}
	}

	if _, err := e.store.ActiveBooking(ctx, propertyID, req.PlotNumber); err == nil {
		e.plugins.EmitBookingRejected(ctx, propertyID, req.PlotNumber)
		return nil, ErrPlotBooked
	} else if !errors.Is(err, ErrBookingNotFound) {
		return nil, err
	}

	now := e.clock()
	b := &booking.Booking{
		Entity:      types.Entity{CreatedAt: now, UpdatedAt: now},
		ID:          id.NewBookingID(),
		PropertyID:  propertyID,
		PlotNumber:  req.PlotNumber,
		BookingDate: now,
		Status:      booking.StatusPending,
		Amount:      req.Amount,
		Payment:     req.Ledger(),
		SaledBy:     actor,
	}

	res, err := e.placeBooking(ctx, b, req)
	if errors.Is(err, ErrClientExists) {
		// A concurrent sale created the client after our lookup; the
		// second resolution finds it and merges instead.
		res, err = e.placeBooking(ctx, b, req)
	}
	if err != nil {
		if errors.Is(err, ErrPlotBooked) {
			e.plugins.EmitBookingRejected(ctx, propertyID, req.PlotNumber)
		}
		return nil, err
	}

	e.plugins.EmitBookingCreated(ctx, res.Booking, res.Client, res.ClientCreated)

	e.logger.Info("booking created",
		"booking_id", b.ID.String(),
		"client_id", b.ClientID.String(),
		"property_id", propertyID.String(),
		"plot_number", b.PlotNumber,
		"amount", b.Amount.String(),
		"client_created", res.ClientCreated,
	)
	return res, nil
}

func (e *Engine) placeBooking(ctx context.Context, b *booking.Booking, req booking.Request) (*booking.Result, error) {
	placement := &booking.Placement{Booking: b}

	existing, err := e.store.GetClientByNationalID(ctx, req.ClientNationalID)
	switch {
	case err == nil:
		b.ClientID = existing.ID
		placement.Merge = b.Payment
	case errors.Is(err, ErrClientNotFound):
		c := &client.Client{
			Entity:     b.Entity,
			ID:         id.NewClientID(),
			Name:       strings.TrimSpace(req.ClientName),
			NationalID: req.ClientNationalID,
			Phone:      strings.TrimSpace(req.ClientPhone),
			ProjectID:  b.PropertyID,
			PlotNumber: b.PlotNumber,
			Payment:    b.Payment,
			Status:     client.StatusOngoing,
			SaledBy:    b.SaledBy,
		}
		b.ClientID = c.ID
		placement.NewClient = c
	default:
		return nil, err
	}

	if err := e.store.PlaceBooking(ctx, placement); err != nil {
		return nil, err
	}

	if placement.NewClient != nil {
		return &booking.Result{Booking: b, Client: placement.NewClient, ClientCreated: true}, nil
	}

	// The store incremented the ledger atomically; other payments may have
	// landed since existing was read.
	merged, err := e.store.GetClient(ctx, existing.ID)
	if err != nil {
		// The sale is already recorded; report the ledger as of our write.
		e.logger.Warn("reload merged client failed", "client_id", existing.ID.String(), "error", err)
		merged = existing
		merged.Payment = merged.Payment.Add(placement.Merge)
		merged.Status = client.StatusFor(merged.Payment)
	}
	return &booking.Result{Booking: b, Client: merged}, nil
}

func validateBookingRequest(req booking.Request) error {
	switch {
	case strings.TrimSpace(req.PropertyID) == "":
		return Required("property_id")
	case req.PlotNumber == 0:
		return Required("plot_number")
	case req.PlotNumber < 0:
		return ValidationError{Field: "plot_number", Message: "plot_number must be positive"}
	case req.Amount.IsZero():
		return Required("amount")
	case req.Amount.IsNegative():
		return ValidationError{Field: "amount", Message: "amount must be positive"}
	case strings.TrimSpace(req.ClientName) == "":
		return Required("client_name")
	case strings.TrimSpace(req.ClientPhone) == "":
		return Required("client_phone")
	case strings.TrimSpace(req.ClientNationalID) == "":
		return Required("client_aadhar")
	case req.CashPayment.IsNegative():
		return ValidationError{Field: "cash_payment", Message: "cash_payment must not be negative"}
	case req.ChequePayment.IsNegative():
		return ValidationError{Field: "cheque_payment", Message: "cheque_payment must not be negative"}
	}

	l := req.Ledger()
	for _, a := range []struct {
		field string
		value decimal.Decimal
	}{
		{"amount", req.Amount},
		{"cash_payment", req.CashPayment},
		{"cheque_payment", req.ChequePayment},
		{"payment", l.Total},
		{"payment", l.Remaining},
	} {
		if err := checkAmount(a.field, a.value); err != nil {
			return err
		}
	}
	return nil
}

// GetBooking returns a booking by ID.
func (e *Engine) GetBooking(ctx context.Context, bookingID id.BookingID) (*booking.Booking, error) {
	return e.store.GetBooking(ctx, bookingID)
}

// ListBookings returns a page of bookings, newest first, optionally
// filtered by status.
func (e *Engine) ListBookings(ctx context.Context, opts booking.ListOpts) (*query.Page[*booking.Booking], error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	opts.Params = opts.Params.Normalize()

	items, total, err := e.store.ListBookings(ctx, opts)
	if err != nil {
		return nil, err
	}
	return query.NewPage(items, opts.Params, total), nil
}

// ──────────────────────────────────────────────────
// Booking state machine
// ──────────────────────────────────────────────────

// SetBookingStatus moves a booking to any valid status. Transitions are
// not restricted by the current status, except that a cancelled booking
// cannot become active again once another booking holds its plot.
func (e *Engine) SetBookingStatus(ctx context.Context, bookingID id.BookingID, status booking.Status) (*booking.Booking, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	from, err := e.store.SetBookingStatus(ctx, bookingID, status)
	if err != nil {
		return nil, err
	}

	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if from != status {
		e.plugins.EmitBookingStatusChanged(ctx, b, from)
		e.logger.Info("booking status changed",
			"booking_id", bookingID.String(),
			"from", string(from),
			"to", string(status),
		)
	}
	return b, nil
}

// ──────────────────────────────────────────────────
// Clients
// ──────────────────────────────────────────────────

// GetClient returns a client by ID.
func (e *Engine) GetClient(ctx context.Context, clientID id.ClientID) (*client.Client, error) {
	return e.store.GetClient(ctx, clientID)
}

// ListClients returns a page of clients in creation order.
func (e *Engine) ListClients(ctx context.Context, opts client.ListOpts) (*query.Page[*client.Client], error) {
	opts.Params = opts.Params.Normalize()

	items, total, err := e.store.ListClients(ctx, opts)
	if err != nil {
		return nil, err
	}
	return query.NewPage(items, opts.Params, total), nil
}

// RecordPayment adds an instalment to a client's ledger. The client is
// marked completed once nothing remains.
func (e *Engine) RecordPayment(ctx context.Context, clientID id.ClientID, cash, cheque decimal.Decimal) (*client.Client, error) {
	switch {
	case cash.IsNegative():
		return nil, ValidationError{Field: "cash_payment", Message: "cash_payment must not be negative"}
	case cheque.IsNegative():
		return nil, ValidationError{Field: "cheque_payment", Message: "cheque_payment must not be negative"}
	case cash.IsZero() && cheque.IsZero():
		return nil, ValidationError{Field: "payment", Message: "cash_payment or cheque_payment is required"}
	}
	if err := checkAmount("cash_payment", cash); err != nil {
		return nil, err
	}
	if err := checkAmount("cheque_payment", cheque); err != nil {
		return nil, err
	}

	c, err := e.store.RecordClientPayment(ctx, clientID, cash, cheque)
	if err != nil {
		return nil, err
	}

	e.plugins.EmitPaymentRecorded(ctx, c, cash, cheque)

	e.logger.Info("payment recorded",
		"client_id", clientID.String(),
		"cash", cash.String(),
		"cheque", cheque.String(),
		"remaining", c.Payment.Remaining.String(),
	)
	return c, nil
}
