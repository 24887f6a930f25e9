package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/havelihousing/backoffice"
)

// envelope is a response body. ok adds "success": true.
type envelope map[string]any

func ok(body envelope) envelope {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	return body
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "error": message})
}

// fail maps an engine error to its status and public message. Anything
// unclassified is logged and reported as "An error occurred while <action>".
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, action string) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		message = "An error occurred while " + action
	}
	writeError(w, status, message)
}

var messages = []struct {
	err     error
	message string
}{
	{backoffice.ErrPropertyNotFound, "Property not found"},
	{backoffice.ErrEmployeeNotFound, "Employee not found"},
	{backoffice.ErrClientNotFound, "Client not found"},
	{backoffice.ErrBookingNotFound, "Booking not found"},
	{backoffice.ErrUserNotFound, "User not found"},
	{backoffice.ErrPlotBooked, "Plot is already booked"},
	{backoffice.ErrPropertyExists, "Property with this RERA number already exists"},
	{backoffice.ErrEmployeeExists, "Employee with this RERA number already exists"},
	{backoffice.ErrClientExists, "Client with this aadhar number already exists"},
	{backoffice.ErrUserExists, "User with this email already exists"},
	{backoffice.ErrInvalidCredentials, "Invalid email or password"},
	{backoffice.ErrUnauthenticated, "Authentication required"},
	{backoffice.ErrInvalidStatus, "Valid status is required (pending, confirmed, cancelled)"},
}

func classify(err error) (int, string) {
	var (
		ve  backoffice.ValidationError
		ref *backoffice.ReferenceError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.As(err, &ref):
		return http.StatusBadRequest, "Invalid " + ref.Kind + " ID"
	}

	var status int
	switch {
	case backoffice.IsValidation(err), backoffice.IsInvalidReference(err):
		status = http.StatusBadRequest
	case backoffice.IsNotFound(err):
		status = http.StatusNotFound
	case backoffice.IsConflict(err):
		status = http.StatusConflict
	case backoffice.IsUnauthenticated(err):
		status = http.StatusUnauthorized
	default:
		return http.StatusInternalServerError, "Internal server error"
	}

	for _, m := range messages {
		if errors.Is(err, m.err) {
			return status, m.message
		}
	}
	return status, http.StatusText(status)
}

// decodeJSON decodes the body into v. It writes 413 when the body exceeds
// the limit and 400 for anything else that fails to decode.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
