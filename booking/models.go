package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCancelled}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether a booking in this status holds its plot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking reserves one plot of a property for a client. At most one active
// booking exists per (PropertyID, PlotNumber).
type Booking struct {
	types.Entity
	ID          id.BookingID    `json:"_id"`
	ClientID    id.ClientID     `json:"client_id"`
	PropertyID  id.PropertyID   `json:"property_id"`
	PlotNumber  int             `json:"plot_number"`
	BookingDate time.Time       `json:"booking_date"`
	Status      Status          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Payment     types.Ledger    `json:"payment"`
	SaledBy     id.UserID       `json:"saled_by"`
}

// Request is an incoming sale.
type Request struct {
	PropertyID       string          `json:"property_id"`
	PlotNumber       int             `json:"plot_number"`
	Amount           decimal.Decimal `json:"amount"`
	ClientName       string          `json:"client_name"`
	ClientPhone      string          `json:"client_phone"`
	ClientNationalID string          `json:"client_aadhar"`
	CashPayment      decimal.Decimal `json:"cash_payment"`
	ChequePayment    decimal.Decimal `json:"cheque_payment"`
}

// Ledger computes the payment breakdown the request describes.
func (r Request) Ledger() types.Ledger {
	return types.ComputeLedger(r.Amount, r.CashPayment, r.ChequePayment)
}

// Placement is the set of writes that records one sale. Exactly one of
// NewClient or an existing Booking.ClientID applies: when NewClient is set
// it is inserted, otherwise Merge is added to the existing client's ledger.
type Placement struct {
	Booking   *Booking
	NewClient *client.Client
	Merge     types.Ledger
}

// Result is what CreateBooking hands back.
type Result struct {
	Booking       *Booking
	Client        *client.Client
	ClientCreated bool
}

// ListOpts filters a booking listing. Bookings are ordered newest first.
type ListOpts struct {
	query.Params
	Status Status
}
