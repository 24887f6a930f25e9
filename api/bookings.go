package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
)

// createBooking handles POST /api/booking. The signed-in user is recorded
// as the seller.
func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := h.check(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	who := identityFromContext(r.Context())
	res, err := h.engine.CreateBooking(r.Context(), who.userID, req.toRequest())
	if err != nil {
		h.fail(w, r, err, "creating booking")
		return
	}
	writeJSON(w, http.StatusCreated, ok(envelope{
		"booking_id": res.Booking.ID.String(),
		"client_id":  res.Client.ID.String(),
		"message":    "Booking created successfully",
	}))
}

// listBookings handles GET /api/booking?page&limit&status.
func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	opts := booking.ListOpts{
		Params: listParams(r),
		Status: booking.Status(r.URL.Query().Get("status")),
	}
	page, err := h.engine.ListBookings(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err, "fetching bookings")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{
		"bookings":   page.Items,
		"pagination": page.Pagination,
	}))
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := backoffice.ParseBookingRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "fetching booking details")
		return
	}
	b, err := h.engine.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.fail(w, r, err, "fetching booking details")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"booking": b}))
}

// setBookingStatus handles PUT /api/booking/{id}/status.
func (h *Handler) setBookingStatus(w http.ResponseWriter, r *http.Request) {
	bookingID, err := backoffice.ParseBookingRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "updating booking status")
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.engine.SetBookingStatus(r.Context(), bookingID, booking.Status(req.Status))
	if err != nil {
		h.fail(w, r, err, "updating booking status")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{
		"message": "Booking status updated to " + string(b.Status),
	}))
}

// listClients handles GET /api/booking/clients?page&limit&search.
func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	page, err := h.engine.ListClients(r.Context(), client.ListOpts{Params: listParams(r)})
	if err != nil {
		h.fail(w, r, err, "fetching clients")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{
		"clients":    page.Items,
		"pagination": page.Pagination,
	}))
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := backoffice.ParseClientRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "fetching client details")
		return
	}
	c, err := h.engine.GetClient(r.Context(), clientID)
	if err != nil {
		h.fail(w, r, err, "fetching client details")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"client": c}))
}

// recordPayment handles POST /api/booking/clients/{id}/payments.
func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	clientID, err := backoffice.ParseClientRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "recording payment")
		return
	}
	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.engine.RecordPayment(r.Context(), clientID, req.CashPayment, req.ChequePayment)
	if err != nil {
		h.fail(w, r, err, "recording payment")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"client": c}))
}
