package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/property"
)

// listProperties handles GET /api/properties.
func (h *Handler) listProperties(w http.ResponseWriter, r *http.Request) {
	page, err := h.engine.ListProperties(r.Context(), property.ListOpts{Params: listParams(r)})
	if err != nil {
		h.fail(w, r, err, "fetching properties")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{
		"properties": page.Items,
		"pagination": page.Pagination,
	}))
}

// getProperty handles GET /api/properties/{id}.
func (h *Handler) getProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := backoffice.ParsePropertyRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "fetching property details")
		return
	}
	p, err := h.engine.GetProperty(r.Context(), propertyID)
	if err != nil {
		h.fail(w, r, err, "fetching property details")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"property": p}))
}

// createProperty handles POST /api/properties.
func (h *Handler) createProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := h.check(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p := req.toProperty()
	if err := h.engine.CreateProperty(r.Context(), p); err != nil {
		h.fail(w, r, err, "creating property")
		return
	}
	writeJSON(w, http.StatusCreated, ok(envelope{
		"property_id": p.ID.String(),
		"message":     "Property created successfully",
	}))
}

// updateProperty handles PUT /api/properties/{id}.
func (h *Handler) updateProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := backoffice.ParsePropertyRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "updating property")
		return
	}
	var u property.Update
	if !decodeJSON(w, r, &u) {
		return
	}

	_, changed, err := h.engine.UpdateProperty(r.Context(), propertyID, u)
	if err != nil {
		h.fail(w, r, err, "updating property")
		return
	}
	msg := "No changes made to property"
	if changed {
		msg = "Property updated successfully"
	}
	writeJSON(w, http.StatusOK, ok(envelope{"message": msg}))
}

// deleteProperty handles DELETE /api/properties/{id}.
func (h *Handler) deleteProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := backoffice.ParsePropertyRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "deleting property")
		return
	}
	if err := h.engine.DeleteProperty(r.Context(), propertyID); err != nil {
		h.fail(w, r, err, "deleting property")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"message": "Property deleted successfully"}))
}
