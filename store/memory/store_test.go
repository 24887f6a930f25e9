package memory_test

import (
	"context"
	"errors"
	"testing"

	backoffice "github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/store"
	"github.com/havelihousing/backoffice/store/memory"
	"github.com/havelihousing/backoffice/store/storetest"
	"github.com/havelihousing/backoffice/types"
	"github.com/havelihousing/backoffice/user"
)

func placement(propertyID id.PropertyID, plot int, c *client.Client) *booking.Placement {
	now := types.Now()
	b := &booking.Booking{
		Entity:      types.Entity{CreatedAt: now, UpdatedAt: now},
		ID:          id.NewBookingID(),
		PropertyID:  propertyID,
		PlotNumber:  plot,
		BookingDate: now,
		Status:      booking.StatusPending,
		Amount:      types.Rupees(100),
		Payment:     types.ComputeLedger(types.Rupees(100), types.Rupees(40), types.Rupees(0)),
	}
	pl := &booking.Placement{Booking: b}
	if c.ID.IsNil() {
		c.ID = id.NewClientID()
		c.Entity = types.Entity{CreatedAt: now, UpdatedAt: now}
		c.Payment = b.Payment
		c.Status = client.StatusOngoing
		pl.NewClient = c
	} else {
		pl.Merge = b.Payment
	}
	b.ClientID = c.ID
	return pl
}

func TestPlaceBookingHoldsPlot(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	prop := id.NewPropertyID()

	first := placement(prop, 1, &client.Client{Name: "A", NationalID: "N1"})
	if err := s.PlaceBooking(ctx, first); err != nil {
		t.Fatal(err)
	}

	clash := placement(prop, 1, &client.Client{Name: "B", NationalID: "N2"})
	if err := s.PlaceBooking(ctx, clash); !errors.Is(err, backoffice.ErrPlotBooked) {
		t.Fatalf("got %v, want ErrPlotBooked", err)
	}
	if _, err := s.GetClientByNationalID(ctx, "N2"); !errors.Is(err, backoffice.ErrClientNotFound) {
		t.Error("a rejected placement must not leave its client behind")
	}

	held, err := s.ActiveBooking(ctx, prop, 1)
	if err != nil || held.ID != first.Booking.ID {
		t.Errorf("ActiveBooking: %v, %v", held, err)
	}
	if _, err := s.ActiveBooking(ctx, prop, 2); !errors.Is(err, backoffice.ErrBookingNotFound) {
		t.Errorf("free plot: got %v", err)
	}
}

func TestPlaceBookingRejectsDuplicateNewClient(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	prop := id.NewPropertyID()

	if err := s.PlaceBooking(ctx, placement(prop, 1, &client.Client{NationalID: "N1"})); err != nil {
		t.Fatal(err)
	}
	err := s.PlaceBooking(ctx, placement(prop, 2, &client.Client{NationalID: "N1"}))
	if !errors.Is(err, backoffice.ErrClientExists) {
		t.Fatalf("got %v, want ErrClientExists", err)
	}
	if _, err := s.ActiveBooking(ctx, prop, 2); err == nil {
		t.Error("plot 2 must stay free")
	}
}

func TestPlaceBookingMergesLedger(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	prop := id.NewPropertyID()

	c := &client.Client{NationalID: "N1"}
	if err := s.PlaceBooking(ctx, placement(prop, 1, c)); err != nil {
		t.Fatal(err)
	}
	if err := s.PlaceBooking(ctx, placement(prop, 2, c)); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetClient(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Payment.Total.Equal(types.Rupees(200)) || !got.Payment.Remaining.Equal(types.Rupees(120)) {
		t.Errorf("merged ledger: %+v", got.Payment)
	}
}

func TestSetBookingStatusMaintainsPlotIndex(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	prop := id.NewPropertyID()

	first := placement(prop, 1, &client.Client{NationalID: "N1"})
	if err := s.PlaceBooking(ctx, first); err != nil {
		t.Fatal(err)
	}

	from, err := s.SetBookingStatus(ctx, first.Booking.ID, booking.StatusCancelled)
	if err != nil || from != booking.StatusPending {
		t.Fatalf("cancel: from=%q err=%v", from, err)
	}

	second := placement(prop, 1, &client.Client{NationalID: "N2"})
	if err := s.PlaceBooking(ctx, second); err != nil {
		t.Fatalf("plot should be free after cancel: %v", err)
	}

	if _, err := s.SetBookingStatus(ctx, first.Booking.ID, booking.StatusConfirmed); !errors.Is(err, backoffice.ErrPlotBooked) {
		t.Errorf("reactivate: got %v", err)
	}
	if _, err := s.SetBookingStatus(ctx, second.Booking.ID, booking.StatusConfirmed); err != nil {
		t.Errorf("confirm holder: %v", err)
	}
	if _, err := s.SetBookingStatus(ctx, id.NewBookingID(), booking.StatusConfirmed); !errors.Is(err, backoffice.ErrBookingNotFound) {
		t.Errorf("missing booking: got %v", err)
	}
}

func TestRecordClientPaymentCompletes(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := &client.Client{NationalID: "N1"}
	if err := s.PlaceBooking(ctx, placement(id.NewPropertyID(), 1, c)); err != nil {
		t.Fatal(err)
	}

	got, err := s.RecordClientPayment(ctx, c.ID, types.Rupees(10), types.Rupees(50))
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != client.StatusCompleted || !got.Payment.Remaining.IsZero() {
		t.Errorf("got %+v", got)
	}
	if !got.Payment.Cash.Equal(types.Rupees(50)) || !got.Payment.Cheque.Equal(types.Rupees(50)) {
		t.Errorf("instalment split lost: %+v", got.Payment)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := &client.Client{Name: "Original", NationalID: "N1"}
	if err := s.PlaceBooking(ctx, placement(id.NewPropertyID(), 1, c)); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetClient(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	got.Name = "Mutated"

	again, err := s.GetClient(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != "Original" {
		t.Errorf("store shares memory with callers")
	}
}

func TestUserEmailUnique(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	u := &user.User{ID: id.NewUserID(), Email: "a@example.com"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	dup := &user.User{ID: id.NewUserID(), Email: "a@example.com"}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, backoffice.ErrUserExists) {
		t.Errorf("got %v", err)
	}
	if _, err := s.GetUserByEmail(ctx, "a@example.com"); err != nil {
		t.Error(err)
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"Ping", func() error { return s.Ping(ctx) }},
		{"CreateProperty", func() error { return s.CreateProperty(ctx, &property.Property{ID: id.NewPropertyID()}) }},
		{"GetProperty", func() error { _, err := s.GetProperty(ctx, id.NewPropertyID()); return err }},
		{"ListClients", func() error { _, _, err := s.ListClients(ctx, client.ListOpts{}); return err }},
		{"PlaceBooking", func() error { return s.PlaceBooking(ctx, placement(id.NewPropertyID(), 1, &client.Client{})) }},
		{"SetBookingStatus", func() error {
			_, err := s.SetBookingStatus(ctx, id.NewBookingID(), booking.StatusCancelled)
			return err
		}},
		{"RecordClientPayment", func() error {
			_, err := s.RecordClientPayment(ctx, id.NewClientID(), types.Rupees(1), types.Rupees(0))
			return err
		}},
		{"CreateUser", func() error { return s.CreateUser(ctx, &user.User{ID: id.NewUserID(), Email: "a@example.com"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, backoffice.ErrStoreClosed) {
				t.Errorf("got %v, want ErrStoreClosed", err)
			}
		})
	}
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s := memory.New()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
