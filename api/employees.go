package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/employee"
)

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	page, err := h.engine.ListEmployees(r.Context(), employee.ListOpts{Params: listParams(r)})
	if err != nil {
		h.fail(w, r, err, "fetching employees")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{
		"employees":  page.Items,
		"pagination": page.Pagination,
	}))
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := backoffice.ParseEmployeeRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "fetching employee details")
		return
	}
	emp, err := h.engine.GetEmployee(r.Context(), employeeID)
	if err != nil {
		h.fail(w, r, err, "fetching employee details")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"employee": emp}))
}

func (h *Handler) employeePerformance(w http.ResponseWriter, r *http.Request) {
	employeeID, err := backoffice.ParseEmployeeRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "fetching employee performance")
		return
	}
	perf, err := h.engine.EmployeePerformance(r.Context(), employeeID)
	if err != nil {
		h.fail(w, r, err, "fetching employee performance")
		return
	}
	writeJSON(w, http.StatusOK, ok(envelope{"performance": perf}))
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := h.check(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	emp := req.toEmployee()
	if err := h.engine.CreateEmployee(r.Context(), emp); err != nil {
		h.fail(w, r, err, "creating employee")
		return
	}
	writeJSON(w, http.StatusCreated, ok(envelope{
		"employee_id": emp.ID.String(),
		"message":     "Employee created successfully",
	}))
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := backoffice.ParseEmployeeRef(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "updating employee")
		return
	}
	var u employee.Update
	if !decodeJSON(w, r, &u) {
		return
	}

	_, changed, err := h.engine.UpdateEmployee(r.Context(), employeeID, u)
	if err != nil {
		h.fail(w, r, err, "updating employee")
		return
	}
	msg := "No changes made to employee"
	if changed {
		msg = "Employee updated successfully"
	}
	writeJSON(w, http.StatusOK, ok(envelope{"message": msg}))
}
