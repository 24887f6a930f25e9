package booking

import (
	"context"

	"github.com/havelihousing/backoffice/id"
)

type Store interface {
	// PlaceBooking writes the booking and its client changes atomically. It
	// fails with the plot-booked error when another active booking holds the
	// plot, and with the client-exists error when NewClient collides with a
	// client created concurrently.
	PlaceBooking(ctx context.Context, p *Placement) error

	GetBooking(ctx context.Context, bookingID id.BookingID) (*Booking, error)

	// ActiveBooking returns the pending or confirmed booking holding a plot.
	ActiveBooking(ctx context.Context, propertyID id.PropertyID, plotNumber int) (*Booking, error)

	ListBookings(ctx context.Context, opts ListOpts) ([]*Booking, int64, error)

	// SetBookingStatus moves a booking to status and returns the status it
	// had before. Reactivating a booking whose plot is now held by another
	// booking fails with the plot-booked error.
	SetBookingStatus(ctx context.Context, bookingID id.BookingID, status Status) (Status, error)
}
