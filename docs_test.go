package backoffice_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/store/memory"
)

// TestDocumentationExamples runs the package documentation's Quick Start.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()
		logger := slog.New(slog.DiscardHandler)

		s := memory.New()
		e := backoffice.New(s, backoffice.WithLogger(logger))
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop(ctx)

		p := &property.Property{
			Name:       "Elite Word Dreamworld City",
			RERANumber: "RAJ2025EDC004",
			Address:    property.Address{City: "Jaipur", Area: "Jagatpura"},
			Rate:       backoffice.Rupees(3200),
			TotalPlots: 150,
		}
		if err := e.CreateProperty(ctx, p); err != nil {
			t.Fatal(err)
		}
		propertyID := p.ID
		userID := backoffice.ID{}

		res, err := e.CreateBooking(ctx, userID, booking.Request{
			PropertyID:       propertyID.String(),
			PlotNumber:       3,
			Amount:           backoffice.Rupees(500000),
			ClientName:       "Amit Sharma",
			ClientPhone:      "9876543210",
			ClientNationalID: "1234-5678-9012",
			CashPayment:      backoffice.Rupees(300000),
			ChequePayment:    backoffice.Rupees(200000),
		})
		if err != nil {
			t.Fatal(err)
		}
		if !res.ClientCreated || !res.Client.Payment.Remaining.IsZero() {
			t.Errorf("unexpected result: created=%v remaining=%s", res.ClientCreated, res.Client.Payment.Remaining)
		}
	})

	t.Run("ErrorClassification", func(t *testing.T) {
		ctx := context.Background()
		e := backoffice.New(memory.New(), backoffice.WithLogger(slog.New(slog.DiscardHandler)))
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop(ctx)

		_, err := e.CreateBooking(ctx, backoffice.ID{}, booking.Request{})
		if !backoffice.IsValidation(err) {
			t.Errorf("empty request: want validation error, got %v", err)
		}

		_, err = e.GetProperty(ctx, backoffice.ID{})
		if !backoffice.IsNotFound(err) {
			t.Errorf("nil id: want not found, got %v", err)
		}
	})
}
