// Package backoffice is the engine of the Haveli Housing back office: plot
// bookings, the client payment ledger, and the property, employee and user
// records around them.
//
// The engine is a library over a store.Store. The cmd/backoffice binary
// wires it to a backend, the HTTP API in package api, and the audit and
// metrics plugins.
//
// # Quick Start
//
//	s := memory.New()
//	e := backoffice.New(s, backoffice.WithLogger(logger))
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop(ctx)
//
//	res, err := e.CreateBooking(ctx, userID, booking.Request{
//	    PropertyID:       propertyID.String(),
//	    PlotNumber:       3,
//	    Amount:           backoffice.Rupees(500000),
//	    ClientName:       "Amit Sharma",
//	    ClientPhone:      "9876543210",
//	    ClientNationalID: "1234-5678-9012",
//	    CashPayment:      backoffice.Rupees(300000),
//	    ChequePayment:    backoffice.Rupees(200000),
//	})
//
// # Bookings
//
// A plot is held by at most one booking in the pending or confirmed state.
// Cancelling a booking frees its plot. CreateBooking checks for a holder
// before writing, but the authoritative guard is the store's uniqueness
// constraint, so two concurrent sales of one plot cannot both succeed.
//
// # Client ledger
//
// Clients are keyed by aadhar number and created by their first booking.
// Each client carries a running Ledger of cash, cheque, total and remaining
// where remaining is always total minus cash minus cheque. Later bookings
// for the same client add their ledger to it; RecordPayment adds
// instalments.
//
// # Errors
//
// Failures are reported with the sentinel errors in errors.go and
// ValidationError. Use IsNotFound, IsConflict, IsValidation,
// IsInvalidReference and IsUnauthenticated to classify them.
package backoffice
