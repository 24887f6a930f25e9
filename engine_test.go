package backoffice_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	backoffice "github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/store/memory"
	"github.com/havelihousing/backoffice/types"
)

var seller = id.NewUserID()

func newEngine(t *testing.T, opts ...backoffice.Option) *backoffice.Engine {
	t.Helper()

	opts = append([]backoffice.Option{
		backoffice.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		backoffice.WithBcryptCost(bcrypt.MinCost),
	}, opts...)
	e := backoffice.New(memory.New(), opts...)

	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = e.Stop(ctx) })
	return e
}

func newProperty(t *testing.T, e *backoffice.Engine, rera string, plots int) *property.Property {
	t.Helper()

	p := &property.Property{
		Name:          "VRB Sparkle",
		RERANumber:    rera,
		Address:       property.Address{City: "Jaipur", Area: "Tonk Road"},
		Specification: "Luxury Modern Community",
		Rate:          types.Rupees(2800),
		TotalPlots:    plots,
	}
	if err := e.CreateProperty(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func sale(p *property.Property, plot int, aadhar string) booking.Request {
	return booking.Request{
		PropertyID:       p.ID.String(),
		PlotNumber:       plot,
		Amount:           types.Rupees(500000),
		ClientName:       "Amit Sharma",
		ClientPhone:      "9876543210",
		ClientNationalID: aadhar,
		CashPayment:      types.Rupees(300000),
		ChequePayment:    types.Rupees(200000),
	}
}

func TestCreateBookingScenario(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ2025VS002", 10)

	res, err := e.CreateBooking(ctx, seller, sale(p, 3, "A1"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if !res.ClientCreated {
		t.Error("first sale should create the client")
	}
	if res.Booking.Status != booking.StatusPending {
		t.Errorf("status: got %q, want pending", res.Booking.Status)
	}

	c, err := e.GetClient(ctx, res.Client.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := types.ComputeLedger(types.Rupees(500000), types.Rupees(300000), types.Rupees(200000))
	if !c.Payment.Total.Equal(want.Total) || !c.Payment.Remaining.IsZero() ||
		!c.Payment.Cash.Equal(want.Cash) || !c.Payment.Cheque.Equal(want.Cheque) {
		t.Errorf("ledger: got %+v, want %+v", c.Payment, want)
	}
	if c.Status != client.StatusOngoing || c.SaledBy != seller || c.ProjectID != p.ID || c.PlotNumber != 3 {
		t.Errorf("unexpected client %+v", c)
	}

	again := sale(p, 3, "A1")
	again.ClientName = "Someone Else"
	if _, err := e.CreateBooking(ctx, seller, again); !errors.Is(err, backoffice.ErrPlotBooked) {
		t.Errorf("repeat sale: got %v, want ErrPlotBooked", err)
	}
}

func TestCreateBookingConflictRegardlessOfClient(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ2025VSP003", 95)

	if _, err := e.CreateBooking(ctx, seller, sale(p, 7, "A1")); err != nil {
		t.Fatal(err)
	}
	_, err := e.CreateBooking(ctx, seller, sale(p, 7, "B2"))
	if !backoffice.IsConflict(err) {
		t.Fatalf("got %v, want a conflict", err)
	}

	page, err := e.ListClients(ctx, client.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.TotalCount != 1 {
		t.Errorf("rejected sale must not create a client, have %d", page.Pagination.TotalCount)
	}
}

func TestSameAadharResolvesToSameClient(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ2025EDC004", 150)

	first, err := e.CreateBooking(ctx, seller, sale(p, 1, "1234-5678-9012"))
	if err != nil {
		t.Fatal(err)
	}

	second := sale(p, 2, "1234-5678-9012")
	second.ClientName = "A. Sharma"
	second.Amount = types.Rupees(400000)
	second.CashPayment = types.Rupees(50000)
	second.ChequePayment = decimal.Zero

	res, err := e.CreateBooking(ctx, seller, second)
	if err != nil {
		t.Fatal(err)
	}
	if res.ClientCreated {
		t.Error("second sale must reuse the client")
	}
	if res.Client.ID != first.Client.ID || res.Booking.ClientID != first.Client.ID {
		t.Fatalf("client ids differ: %s vs %s", res.Client.ID, first.Client.ID)
	}

	c, err := e.GetClient(ctx, first.Client.ID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Amit Sharma" || c.PlotNumber != 1 {
		t.Errorf("first-sale details must be kept, got %q plot %d", c.Name, c.PlotNumber)
	}
	if !c.Payment.Total.Equal(types.Rupees(900000)) || !c.Payment.Remaining.Equal(types.Rupees(350000)) {
		t.Errorf("merged ledger: got %+v", c.Payment)
	}
	if !c.Payment.Consistent() {
		t.Errorf("merged ledger inconsistent: %+v", c.Payment)
	}
	if !res.Booking.Payment.Total.Equal(types.Rupees(400000)) {
		t.Errorf("booking keeps its own breakdown, got %+v", res.Booking.Payment)
	}
}

func TestLedgerToleratesOverpayment(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ2025VWC005", 110)

	req := sale(p, 4, "OVER1")
	req.Amount = types.Rupees(100000)
	req.CashPayment = types.Rupees(80000)
	req.ChequePayment = types.Rupees(50000)

	res, err := e.CreateBooking(ctx, seller, req)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Client.Payment.Remaining.Equal(types.Rupees(-30000)) {
		t.Errorf("remaining: got %s, want -30000", res.Client.Payment.Remaining)
	}
}

func TestCancelFreesPlot(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ2025RARE006", 100)

	first, err := e.CreateBooking(ctx, seller, sale(p, 9, "C1"))
	if err != nil {
		t.Fatal(err)
	}

	b, err := e.SetBookingStatus(ctx, first.Booking.ID, booking.StatusCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != booking.StatusCancelled {
		t.Fatalf("status: got %q", b.Status)
	}

	if _, err := e.CreateBooking(ctx, seller, sale(p, 9, "C2")); err != nil {
		t.Fatalf("rebooking a cancelled plot: %v", err)
	}

	_, err = e.SetBookingStatus(ctx, first.Booking.ID, booking.StatusPending)
	if !errors.Is(err, backoffice.ErrPlotBooked) {
		t.Errorf("reactivating over a new holder: got %v, want ErrPlotBooked", err)
	}
}

func TestSetBookingStatusIsPermissive(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-PERM-1", 10)

	res, err := e.CreateBooking(ctx, seller, sale(p, 1, "P1"))
	if err != nil {
		t.Fatal(err)
	}

	steps := []booking.Status{
		booking.StatusConfirmed,
		booking.StatusPending,
		booking.StatusCancelled,
		booking.StatusConfirmed,
		booking.StatusConfirmed,
	}
	for _, s := range steps {
		b, err := e.SetBookingStatus(ctx, res.Booking.ID, s)
		if err != nil {
			t.Fatalf("-> %s: %v", s, err)
		}
		if b.Status != s {
			t.Fatalf("-> %s: got %s", s, b.Status)
		}
	}
}

func TestSetBookingStatusErrors(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-ERR-1", 10)

	res, err := e.CreateBooking(ctx, seller, sale(p, 1, "E1"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.SetBookingStatus(ctx, res.Booking.ID, "archived"); !errors.Is(err, backoffice.ErrInvalidStatus) {
		t.Errorf("unknown status: got %v", err)
	}
	if _, err := e.SetBookingStatus(ctx, id.NewBookingID(), booking.StatusConfirmed); !backoffice.IsNotFound(err) {
		t.Errorf("missing booking: got %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-VAL-1", 10)

	tests := []struct {
		name   string
		mutate func(*booking.Request)
		field  string
	}{
		{"missing property", func(r *booking.Request) { r.PropertyID = "" }, "property_id"},
		{"missing plot", func(r *booking.Request) { r.PlotNumber = 0 }, "plot_number"},
		{"plot beyond property", func(r *booking.Request) { r.PlotNumber = 11 }, "plot_number"},
		{"missing amount", func(r *booking.Request) { r.Amount = decimal.Zero }, "amount"},
		{"missing name", func(r *booking.Request) { r.ClientName = " " }, "client_name"},
		{"missing phone", func(r *booking.Request) { r.ClientPhone = "" }, "client_phone"},
		{"missing aadhar", func(r *booking.Request) { r.ClientNationalID = "" }, "client_aadhar"},
		{"negative cash", func(r *booking.Request) { r.CashPayment = types.Rupees(-1) }, "cash_payment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sale(p, 1, "V1")
			tt.mutate(&req)

			_, err := e.CreateBooking(ctx, seller, req)
			var ve backoffice.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field: got %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestCreateBookingPropertyReference(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-REF-1", 10)

	tests := []struct {
		name  string
		ref   string
		check func(error) bool
	}{
		{"malformed", "64b7f0c2a1e4f1d2c3b4a596", backoffice.IsInvalidReference},
		{"wrong kind", id.NewClientID().String(), backoffice.IsInvalidReference},
		{"absent", id.NewPropertyID().String(), backoffice.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sale(p, 1, "R1")
			req.PropertyID = tt.ref
			if _, err := e.CreateBooking(ctx, seller, req); !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestConcurrentSalesOfOnePlot(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-RACE-1", 10)

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.CreateBooking(ctx, seller, sale(p, 5, fmt.Sprintf("RACE-%d", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, backoffice.ErrPlotBooked):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || conflicts != n-1 {
		t.Errorf("succeeded=%d conflicts=%d, want 1/%d", succeeded, conflicts, n-1)
	}
}

func TestConcurrentFirstSalesShareClient(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-RACE-2", 50)

	const n = 8
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.CreateBooking(ctx, seller, sale(p, i+1, "SHARED")); err != nil {
				t.Errorf("plot %d: %v", i+1, err)
			}
		}()
	}
	wg.Wait()

	page, err := e.ListClients(ctx, client.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.TotalCount != 1 {
		t.Fatalf("clients: got %d, want 1", page.Pagination.TotalCount)
	}
	c := page.Items[0]
	if !c.Payment.Total.Equal(types.Rupees(500000 * n)) {
		t.Errorf("total: got %s", c.Payment.Total)
	}
}

func TestListBookingsPagination(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	e := newEngine(t, backoffice.WithClock(func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Minute)
	}))
	p := newProperty(t, e, "RAJ-PAGE-1", 30)

	for i := 1; i <= 23; i++ {
		if _, err := e.CreateBooking(ctx, seller, sale(p, i, fmt.Sprintf("PG-%02d", i))); err != nil {
			t.Fatal(err)
		}
	}

	page, err := e.ListBookings(ctx, booking.ListOpts{Params: query.Params{Page: 3, Limit: 10}})
	if err != nil {
		t.Fatal(err)
	}
	pg := page.Pagination
	if pg.TotalCount != 23 || pg.TotalPages != 3 || pg.HasNext || !pg.HasPrev || pg.CurrentPage != 3 {
		t.Errorf("pagination: got %+v", pg)
	}
	if len(page.Items) != 3 {
		t.Fatalf("items: got %d, want 3", len(page.Items))
	}
	// Newest first, so the last page holds the three oldest.
	if page.Items[2].PlotNumber != 1 {
		t.Errorf("last item: got plot %d, want 1", page.Items[2].PlotNumber)
	}

	first, err := e.ListBookings(ctx, booking.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Items) != 10 || first.Items[0].PlotNumber != 23 || !first.Pagination.HasNext {
		t.Errorf("default page: %d items, first plot %d", len(first.Items), first.Items[0].PlotNumber)
	}
}

func TestListBookingsByStatus(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-STAT-1", 10)

	for i := 1; i <= 4; i++ {
		res, err := e.CreateBooking(ctx, seller, sale(p, i, fmt.Sprintf("ST-%d", i)))
		if err != nil {
			t.Fatal(err)
		}
		if i%2 == 0 {
			if _, err := e.SetBookingStatus(ctx, res.Booking.ID, booking.StatusConfirmed); err != nil {
				t.Fatal(err)
			}
		}
	}

	page, err := e.ListBookings(ctx, booking.ListOpts{Status: booking.StatusConfirmed})
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.TotalCount != 2 {
		t.Errorf("confirmed: got %d, want 2", page.Pagination.TotalCount)
	}

	if _, err := e.ListBookings(ctx, booking.ListOpts{Status: "sold"}); !errors.Is(err, backoffice.ErrInvalidStatus) {
		t.Errorf("bad filter: got %v", err)
	}
}

func TestListClientsSearch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-SRCH-1", 10)

	names := []string{"Amit Sharma", "Priya Verma", "Rohit Sharma"}
	for i, name := range names {
		req := sale(p, i+1, fmt.Sprintf("9999-0000-%04d", i))
		req.ClientName = name
		if _, err := e.CreateBooking(ctx, seller, req); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		search string
		want   int64
	}{
		{"sharma", 2},
		{"PRIYA", 1},
		{"0000-0002", 1},
		{"98765", 3},
		{"nobody", 0},
		{".*", 0},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			page, err := e.ListClients(ctx, client.ListOpts{Params: query.Params{Search: tt.search}})
			if err != nil {
				t.Fatal(err)
			}
			if page.Pagination.TotalCount != tt.want {
				t.Errorf("got %d, want %d", page.Pagination.TotalCount, tt.want)
			}
		})
	}
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-PAY-1", 10)

	req := sale(p, 1, "PAY1")
	req.CashPayment = types.Rupees(100000)
	req.ChequePayment = decimal.Zero
	res, err := e.CreateBooking(ctx, seller, req)
	if err != nil {
		t.Fatal(err)
	}

	c, err := e.RecordPayment(ctx, res.Client.ID, types.Rupees(150000), decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != client.StatusOngoing || !c.Payment.Remaining.Equal(types.Rupees(250000)) {
		t.Errorf("after first instalment: %+v", c)
	}

	c, err = e.RecordPayment(ctx, res.Client.ID, decimal.Zero, types.Rupees(250000))
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != client.StatusCompleted || !c.Payment.Remaining.IsZero() || !c.Payment.Consistent() {
		t.Errorf("after settling: %+v", c)
	}

	if _, err := e.RecordPayment(ctx, res.Client.ID, decimal.Zero, decimal.Zero); !backoffice.IsValidation(err) {
		t.Errorf("empty payment: got %v", err)
	}
	if _, err := e.RecordPayment(ctx, id.NewClientID(), types.Rupees(1), decimal.Zero); !backoffice.IsNotFound(err) {
		t.Errorf("missing client: got %v", err)
	}
}

func TestAmountsMustFitStoredPrecision(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	p := newProperty(t, e, "RAJ-AMT-1", 50)

	tests := []struct {
		name   string
		mutate func(*booking.Request)
		field  string
	}{
		{"sub-paisa amount", func(r *booking.Request) {
			r.Amount = decimal.RequireFromString("1.005")
			r.CashPayment = decimal.RequireFromString("0.004")
			r.ChequePayment = decimal.Zero
		}, "amount"},
		{"sub-paisa cash", func(r *booking.Request) { r.CashPayment = decimal.RequireFromString("0.004") }, "cash_payment"},
		{"sub-paisa cheque", func(r *booking.Request) { r.ChequePayment = decimal.RequireFromString("200000.001") }, "cheque_payment"},
		{"amount at bound", func(r *booking.Request) { r.Amount = decimal.New(1, 12) }, "amount"},
		{"cash at bound", func(r *booking.Request) { r.CashPayment = decimal.New(1, 12) }, "cash_payment"},
		{"payments sum past bound", func(r *booking.Request) {
			r.CashPayment = decimal.New(6, 11)
			r.ChequePayment = decimal.New(6, 11)
		}, "payment"},
		{"beyond decimal128", func(r *booking.Request) {
			r.Amount = decimal.RequireFromString("1.0000000000000000000000000000000000001")
		}, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sale(p, 1, "AMT1")
			tt.mutate(&req)

			_, err := e.CreateBooking(ctx, seller, req)
			var ve backoffice.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field: got %q, want %q", ve.Field, tt.field)
			}
		})
	}

	// Trailing zeros are not extra precision.
	ok := sale(p, 2, "AMT2")
	ok.Amount = decimal.RequireFromString("1000.500")
	ok.CashPayment = decimal.RequireFromString("0.50")
	ok.ChequePayment = decimal.Zero
	res, err := e.CreateBooking(ctx, seller, ok)
	if err != nil {
		t.Fatalf("two-place amounts: %v", err)
	}

	if _, err := e.RecordPayment(ctx, res.Client.ID, decimal.RequireFromString("0.001"), decimal.Zero); !backoffice.IsValidation(err) {
		t.Errorf("sub-paisa instalment: got %v", err)
	}
	if _, err := e.RecordPayment(ctx, res.Client.ID, decimal.Zero, decimal.New(1, 12)); !backoffice.IsValidation(err) {
		t.Errorf("instalment at bound: got %v", err)
	}

	bad := &property.Property{Name: "X", RERANumber: "RAJ-AMT-2", Rate: decimal.RequireFromString("2800.555")}
	if err := e.CreateProperty(ctx, bad); !backoffice.IsValidation(err) {
		t.Errorf("sub-paisa rate: got %v", err)
	}
	huge := decimal.New(1, 12)
	if _, _, err := e.UpdateProperty(ctx, p.ID, property.Update{Rate: &huge}); !backoffice.IsValidation(err) {
		t.Errorf("rate at bound: got %v", err)
	}
}

// paymentDuringPlacement records an instalment for the merged client while
// the booking is being placed, as a concurrent request would.
type paymentDuringPlacement struct {
	*memory.Store
	instalment decimal.Decimal
}

func (s *paymentDuringPlacement) PlaceBooking(ctx context.Context, pl *booking.Placement) error {
	if err := s.Store.PlaceBooking(ctx, pl); err != nil {
		return err
	}
	if pl.NewClient == nil {
		_, err := s.Store.RecordClientPayment(ctx, pl.Booking.ClientID, s.instalment, decimal.Zero)
		return err
	}
	return nil
}

func TestMergedClientReflectsStoredLedger(t *testing.T) {
	ctx := context.Background()
	s := &paymentDuringPlacement{Store: memory.New(), instalment: types.Rupees(10000)}
	e := backoffice.New(s,
		backoffice.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		backoffice.WithBcryptCost(bcrypt.MinCost),
	)
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = e.Stop(ctx) })
	p := newProperty(t, e, "RAJ-MRG-1", 10)

	if _, err := e.CreateBooking(ctx, seller, sale(p, 1, "MRG1")); err != nil {
		t.Fatal(err)
	}
	res, err := e.CreateBooking(ctx, seller, sale(p, 2, "MRG1"))
	if err != nil {
		t.Fatal(err)
	}

	stored, err := e.GetClient(ctx, res.Client.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Client.Payment.Cash.Equal(stored.Payment.Cash) || !res.Client.Payment.Remaining.Equal(stored.Payment.Remaining) {
		t.Errorf("result ledger %+v, stored %+v", res.Client.Payment, stored.Payment)
	}
	if !stored.Payment.Cash.Equal(types.Rupees(610000)) {
		t.Errorf("stored cash: got %s, want 610000", stored.Payment.Cash)
	}
}
