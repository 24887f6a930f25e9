// Package storetest is a conformance suite every store.Store backend must
// pass. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	backoffice "github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/store"
	"github.com/havelihousing/backoffice/types"
	"github.com/havelihousing/backoffice/user"
)

// Opener returns a migrated, empty store and registers its teardown with
// t.Cleanup.
type Opener func(t *testing.T) store.Store

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(*testing.T, store.Store)
	}{
		{"PropertyRoundTrip", testPropertyRoundTrip},
		{"PropertyRERAUnique", testPropertyRERAUnique},
		{"PropertyListSearch", testPropertyListSearch},
		{"EmployeeRoundTrip", testEmployeeRoundTrip},
		{"PlaceBookingNewClient", testPlaceBookingNewClient},
		{"PlaceBookingPlotConflict", testPlaceBookingPlotConflict},
		{"PlaceBookingClientConflict", testPlaceBookingClientConflict},
		{"PlaceBookingMerge", testPlaceBookingMerge},
		{"BookingStatusAndPlotRelease", testBookingStatus},
		{"BookingListOrderAndFilter", testBookingList},
		{"ClientPayment", testClientPayment},
		{"Users", testUsers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func at(i int) types.Entity {
	ts := base.Add(time.Duration(i) * time.Minute)
	return types.Entity{CreatedAt: ts, UpdatedAt: ts}
}

func newProperty(i int, name, city string) *property.Property {
	return &property.Property{
		Entity:        at(i),
		ID:            id.NewPropertyID(),
		Name:          name,
		RERANumber:    fmt.Sprintf("RAJ2025-%03d", i),
		Address:       property.Address{City: city, Area: "Ajmer Road"},
		Specification: "Luxury Modern Community",
		Rate:          types.Rupees(2800),
		TotalPlots:    120,
		Description:   "Gated plots",
		MapURL:        "https://maps.example/p",
	}
}

func newClient(i int, name, aadhar string, l types.Ledger) *client.Client {
	return &client.Client{
		Entity:     at(i),
		ID:         id.NewClientID(),
		Name:       name,
		NationalID: aadhar,
		Phone:      "98765" + fmt.Sprintf("%05d", i),
		PlotNumber: i,
		Payment:    l,
		Status:     client.StatusFor(l),
		SaledBy:    id.NewUserID(),
	}
}

func newBooking(i int, propertyID id.PropertyID, plot int, l types.Ledger) *booking.Booking {
	e := at(i)
	return &booking.Booking{
		Entity:      e,
		ID:          id.NewBookingID(),
		PropertyID:  propertyID,
		PlotNumber:  plot,
		BookingDate: e.CreatedAt,
		Status:      booking.StatusPending,
		Amount:      l.Total,
		Payment:     l,
	}
}

func sale(total, cash, cheque int64) types.Ledger {
	return types.ComputeLedger(types.Rupees(total), types.Rupees(cash), types.Rupees(cheque))
}

// placeNew places a booking for a new client and fails the test on error.
func placeNew(t *testing.T, s store.Store, i int, propertyID id.PropertyID, plot int, aadhar string) (*booking.Booking, *client.Client) {
	t.Helper()
	l := sale(500000, 300000, 100000)
	c := newClient(i, "Client "+aadhar, aadhar, l)
	b := newBooking(i, propertyID, plot, l)
	b.ClientID = c.ID
	if err := s.PlaceBooking(context.Background(), &booking.Placement{Booking: b, NewClient: c}); err != nil {
		t.Fatalf("PlaceBooking: %v", err)
	}
	return b, c
}

func testPropertyRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := newProperty(1, "VRB Sparkle", "Jaipur")
	p.Rate = types.Rupees(2800).Add(types.Rupees(1).Div(types.Rupees(2)))
	if err := s.CreateProperty(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProperty(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != p.Name || got.Address != p.Address || !got.Rate.Equal(p.Rate) || got.TotalPlots != 120 {
		t.Errorf("got %+v, want %+v", got, p)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("created_at: got %v, want %v", got.CreatedAt, p.CreatedAt)
	}

	got.Name = "VRB Sparkle II"
	got.UpdatedAt = base.Add(time.Hour)
	if err := s.UpdateProperty(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, err := s.GetProperty(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != "VRB Sparkle II" {
		t.Errorf("update lost: %q", again.Name)
	}

	if err := s.DeleteProperty(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetProperty(ctx, p.ID); !errors.Is(err, backoffice.ErrPropertyNotFound) {
		t.Errorf("after delete: got %v", err)
	}
	if err := s.DeleteProperty(ctx, p.ID); !errors.Is(err, backoffice.ErrPropertyNotFound) {
		t.Errorf("second delete: got %v", err)
	}
	if err := s.UpdateProperty(ctx, p); !errors.Is(err, backoffice.ErrPropertyNotFound) {
		t.Errorf("update missing: got %v", err)
	}
}

func testPropertyRERAUnique(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := newProperty(1, "A", "Jaipur")
	b := newProperty(2, "B", "Jaipur")
	if err := s.CreateProperty(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateProperty(ctx, b); err != nil {
		t.Fatal(err)
	}

	dup := newProperty(3, "C", "Jaipur")
	dup.RERANumber = a.RERANumber
	if err := s.CreateProperty(ctx, dup); !errors.Is(err, backoffice.ErrPropertyExists) {
		t.Errorf("create: got %v", err)
	}

	b.RERANumber = a.RERANumber
	if err := s.UpdateProperty(ctx, b); !errors.Is(err, backoffice.ErrPropertyExists) {
		t.Errorf("update: got %v", err)
	}
}

func testPropertyListSearch(t *testing.T, s store.Store) {
	ctx := context.Background()
	cities := []string{"Jaipur", "Ajmer", "Jaipur", "Kota", "JAIPUR"}
	for i, city := range cities {
		if err := s.CreateProperty(ctx, newProperty(i, fmt.Sprintf("Project %d", i), city)); err != nil {
			t.Fatal(err)
		}
	}

	page := query.Params{Page: 1, Limit: 2, Search: "jaipur"}
	items, total, err := s.ListProperties(ctx, property.ListOpts{Params: page})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("total=%d items=%d, want 3/2", total, len(items))
	}
	if items[0].Name != "Project 0" || items[1].Name != "Project 2" {
		t.Errorf("order: %s, %s", items[0].Name, items[1].Name)
	}

	items, total, err = s.ListProperties(ctx, property.ListOpts{Params: query.Params{Page: 3, Limit: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(items) != 1 || items[0].Name != "Project 4" {
		t.Errorf("last page: total=%d items=%d", total, len(items))
	}

	_, total, err = s.ListProperties(ctx, property.ListOpts{Params: query.Params{Page: 1, Limit: 10, Search: "%"}})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("wildcard search must be literal, matched %d", total)
	}
}

func testEmployeeRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	e := &employee.Employee{
		Entity:        at(1),
		ID:            id.NewEmployeeID(),
		Name:          "Rohit Meena",
		NationalID:    "4321-8765-2109",
		AccountNumber: "50100234567890",
		RERANumber:    "RAJ/AG/001",
		TotalSales:    4,
		SuperiorName:  "Suresh Gupta",
		OngoingWork:   []string{"VRB Sparkle", "Balaji Farms"},
	}
	if err := s.CreateEmployee(ctx, e); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetEmployee(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != e.Name || len(got.OngoingWork) != 2 || got.OngoingWork[1] != "Balaji Farms" {
		t.Errorf("got %+v", got)
	}

	got.OngoingWork = []string{}
	got.TotalSales = 5
	if err := s.UpdateEmployee(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, err := s.GetEmployee(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.TotalSales != 5 || again.OngoingWork == nil || len(again.OngoingWork) != 0 {
		t.Errorf("after update: %+v", again)
	}

	dup := *e
	dup.ID = id.NewEmployeeID()
	if err := s.CreateEmployee(ctx, &dup); !errors.Is(err, backoffice.ErrEmployeeExists) {
		t.Errorf("duplicate rera: got %v", err)
	}
	if _, err := s.GetEmployee(ctx, id.NewEmployeeID()); !errors.Is(err, backoffice.ErrEmployeeNotFound) {
		t.Errorf("missing: got %v", err)
	}

	items, total, err := s.ListEmployees(ctx, employee.ListOpts{Params: query.Params{Page: 1, Limit: 10, Search: "gupta"}})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 {
		t.Errorf("search superior: total=%d", total)
	}
}

func testPlaceBookingNewClient(t *testing.T, s store.Store) {
	ctx := context.Background()
	propertyID := id.NewPropertyID()
	b, c := placeNew(t, s, 1, propertyID, 7, "1111-2222-3333")

	gotB, err := s.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotB.ClientID != c.ID || gotB.Status != booking.StatusPending || !gotB.Amount.Equal(types.Rupees(500000)) {
		t.Errorf("booking: %+v", gotB)
	}
	if !gotB.Payment.Remaining.Equal(types.Rupees(100000)) {
		t.Errorf("booking ledger: %+v", gotB.Payment)
	}

	held, err := s.ActiveBooking(ctx, propertyID, 7)
	if err != nil || held.ID != b.ID {
		t.Errorf("ActiveBooking: %v, %v", held, err)
	}

	gotC, err := s.GetClientByNationalID(ctx, "1111-2222-3333")
	if err != nil {
		t.Fatal(err)
	}
	if gotC.ID != c.ID || gotC.Status != client.StatusOngoing || gotC.SaledBy != c.SaledBy {
		t.Errorf("client: %+v", gotC)
	}
	if _, err := s.GetClientByNationalID(ctx, "nobody"); !errors.Is(err, backoffice.ErrClientNotFound) {
		t.Errorf("missing client: got %v", err)
	}
}

func testPlaceBookingPlotConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	propertyID := id.NewPropertyID()
	placeNew(t, s, 1, propertyID, 7, "A1")

	l := sale(100, 0, 0)
	c := newClient(2, "Other", "B2", l)
	b := newBooking(2, propertyID, 7, l)
	b.ClientID = c.ID
	err := s.PlaceBooking(ctx, &booking.Placement{Booking: b, NewClient: c})
	if !errors.Is(err, backoffice.ErrPlotBooked) {
		t.Fatalf("got %v, want ErrPlotBooked", err)
	}
	if _, err := s.GetClientByNationalID(ctx, "B2"); !errors.Is(err, backoffice.ErrClientNotFound) {
		t.Errorf("rejected sale left its client behind: %v", err)
	}
	if _, err := s.GetBooking(ctx, b.ID); !errors.Is(err, backoffice.ErrBookingNotFound) {
		t.Errorf("rejected booking stored: %v", err)
	}
}

func testPlaceBookingClientConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	propertyID := id.NewPropertyID()
	placeNew(t, s, 1, propertyID, 1, "SAME")

	l := sale(100, 0, 0)
	c := newClient(2, "Racer", "SAME", l)
	b := newBooking(2, propertyID, 2, l)
	b.ClientID = c.ID
	err := s.PlaceBooking(ctx, &booking.Placement{Booking: b, NewClient: c})
	if !errors.Is(err, backoffice.ErrClientExists) {
		t.Fatalf("got %v, want ErrClientExists", err)
	}
	if _, err := s.ActiveBooking(ctx, propertyID, 2); !errors.Is(err, backoffice.ErrBookingNotFound) {
		t.Errorf("plot 2 should stay free: %v", err)
	}
}

func testPlaceBookingMerge(t *testing.T, s store.Store) {
	ctx := context.Background()
	propertyID := id.NewPropertyID()
	_, c := placeNew(t, s, 1, propertyID, 1, "M1")

	merge := sale(400000, 50000, 0)
	b := newBooking(2, propertyID, 2, merge)
	b.ClientID = c.ID
	if err := s.PlaceBooking(ctx, &booking.Placement{Booking: b, Merge: merge}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetClient(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := sale(900000, 350000, 100000)
	if !got.Payment.Total.Equal(want.Total) || !got.Payment.Cash.Equal(want.Cash) ||
		!got.Payment.Cheque.Equal(want.Cheque) || !got.Payment.Remaining.Equal(want.Remaining) {
		t.Errorf("merged ledger: got %+v, want %+v", got.Payment, want)
	}
	if got.Name != c.Name || got.PlotNumber != c.PlotNumber {
		t.Errorf("merge overwrote first-sale details: %+v", got)
	}

	// A merge onto a held plot is refused and leaves the ledger untouched.
	clash := newBooking(3, propertyID, 2, merge)
	clash.ClientID = c.ID
	if err := s.PlaceBooking(ctx, &booking.Placement{Booking: clash, Merge: merge}); !errors.Is(err, backoffice.ErrPlotBooked) {
		t.Fatalf("got %v, want ErrPlotBooked", err)
	}
	after, err := s.GetClient(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !after.Payment.Total.Equal(want.Total) {
		t.Errorf("rejected merge changed the ledger: %+v", after.Payment)
	}
}

func testBookingStatus(t *testing.T, s store.Store) {
	ctx := context.Background()
	propertyID := id.NewPropertyID()
	first, _ := placeNew(t, s, 1, propertyID, 3, "S1")

	from, err := s.SetBookingStatus(ctx, first.ID, booking.StatusConfirmed)
	if err != nil || from != booking.StatusPending {
		t.Fatalf("confirm: from=%q err=%v", from, err)
	}
	from, err = s.SetBookingStatus(ctx, first.ID, booking.StatusCancelled)
	if err != nil || from != booking.StatusConfirmed {
		t.Fatalf("cancel: from=%q err=%v", from, err)
	}
	if _, err := s.ActiveBooking(ctx, propertyID, 3); !errors.Is(err, backoffice.ErrBookingNotFound) {
		t.Errorf("cancelled booking still holds the plot: %v", err)
	}

	second, _ := placeNew(t, s, 2, propertyID, 3, "S2")

	if _, err := s.SetBookingStatus(ctx, first.ID, booking.StatusPending); !errors.Is(err, backoffice.ErrPlotBooked) {
		t.Errorf("reactivate: got %v, want ErrPlotBooked", err)
	}
	got, err := s.GetBooking(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != booking.StatusCancelled {
		t.Errorf("refused reactivation changed status to %q", got.Status)
	}

	if _, err := s.SetBookingStatus(ctx, second.ID, booking.StatusCancelled); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetBookingStatus(ctx, first.ID, booking.StatusConfirmed); err != nil {
		t.Errorf("reactivate after release: %v", err)
	}

	if _, err := s.SetBookingStatus(ctx, id.NewBookingID(), booking.StatusConfirmed); !errors.Is(err, backoffice.ErrBookingNotFound) {
		t.Errorf("missing booking: got %v", err)
	}
}

func testBookingList(t *testing.T, s store.Store) {
	ctx := context.Background()
	propertyID := id.NewPropertyID()

	var ids []id.BookingID
	for i := 1; i <= 5; i++ {
		b, _ := placeNew(t, s, i, propertyID, i, fmt.Sprintf("L%d", i))
		ids = append(ids, b.ID)
	}
	if _, err := s.SetBookingStatus(ctx, ids[1], booking.StatusConfirmed); err != nil {
		t.Fatal(err)
	}

	items, total, err := s.ListBookings(ctx, booking.ListOpts{Params: query.Params{Page: 1, Limit: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(items) != 2 || items[0].ID != ids[4] || items[1].ID != ids[3] {
		t.Errorf("newest first: total=%d first=%v", total, items)
	}

	items, total, err = s.ListBookings(ctx, booking.ListOpts{
		Params: query.Params{Page: 1, Limit: 10},
		Status: booking.StatusConfirmed,
	})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != ids[1] {
		t.Errorf("status filter: total=%d", total)
	}

	clients, total, err := s.ListClients(ctx, client.ListOpts{Params: query.Params{Page: 1, Limit: 10, Search: "l3"}})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || clients[0].NationalID != "L3" {
		t.Errorf("client search: total=%d", total)
	}
}

func testClientPayment(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, c := placeNew(t, s, 1, id.NewPropertyID(), 1, "P1")

	got, err := s.RecordClientPayment(ctx, c.ID, types.Rupees(60000), types.Rupees(0))
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != client.StatusOngoing || !got.Payment.Remaining.Equal(types.Rupees(40000)) {
		t.Errorf("partial payment: %+v", got.Payment)
	}

	got, err = s.RecordClientPayment(ctx, c.ID, types.Rupees(0), types.Rupees(40000))
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != client.StatusCompleted || !got.Payment.Remaining.IsZero() {
		t.Errorf("settled: status=%q ledger=%+v", got.Status, got.Payment)
	}
	if !got.Payment.Cash.Equal(types.Rupees(360000)) || !got.Payment.Cheque.Equal(types.Rupees(140000)) {
		t.Errorf("split: %+v", got.Payment)
	}
	if !got.Payment.Consistent() {
		t.Errorf("inconsistent ledger: %+v", got.Payment)
	}

	if _, err := s.RecordClientPayment(ctx, id.NewClientID(), types.Rupees(1), types.Rupees(0)); !errors.Is(err, backoffice.ErrClientNotFound) {
		t.Errorf("missing client: got %v", err)
	}
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := &user.User{
		Entity:       at(1),
		ID:           id.NewUserID(),
		Email:        "admin@example.com",
		Name:         "Admin",
		PasswordHash: []byte("$2a$04$hash"),
	}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetUserByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID || string(got.PasswordHash) != string(u.PasswordHash) {
		t.Errorf("got %+v", got)
	}
	if _, err := s.GetUser(ctx, u.ID); err != nil {
		t.Error(err)
	}

	dup := *u
	dup.ID = id.NewUserID()
	if err := s.CreateUser(ctx, &dup); !errors.Is(err, backoffice.ErrUserExists) {
		t.Errorf("duplicate email: got %v", err)
	}
	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, backoffice.ErrUserNotFound) {
		t.Errorf("missing: got %v", err)
	}
}
