package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/user"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func viewUser(u *user.User) userView {
	return userView{ID: u.ID.String(), Email: u.Email, Name: u.Name}
}

type propertyRequest struct {
	Name          string            `json:"name" validate:"required"`
	RERANumber    string            `json:"rera_number" validate:"required"`
	Address       *property.Address `json:"address" validate:"required"`
	Specification string            `json:"specification" validate:"required"`
	Rate          *decimal.Decimal  `json:"rate" validate:"required"`
	TotalPlots    *int              `json:"total_plots" validate:"required"`
	Description   string            `json:"description" validate:"required"`
	MapURL        string            `json:"map_url"`
}

func (req propertyRequest) toProperty() *property.Property {
	return &property.Property{
		Name:          strings.TrimSpace(req.Name),
		RERANumber:    strings.TrimSpace(req.RERANumber),
		Address:       *req.Address,
		Specification: req.Specification,
		Rate:          *req.Rate,
		TotalPlots:    *req.TotalPlots,
		Description:   req.Description,
		MapURL:        req.MapURL,
	}
}

type employeeRequest struct {
	Name          string   `json:"name" validate:"required"`
	NationalID    string   `json:"aadhar_number" validate:"required"`
	AccountNumber string   `json:"account_number" validate:"required"`
	RERANumber    string   `json:"rera_number" validate:"required"`
	SuperiorName  string   `json:"superior_name" validate:"required"`
	TotalSales    int      `json:"total_sales" validate:"gte=0"`
	PhotoURL      string   `json:"photo_url"`
	OngoingWork   []string `json:"ongoing_work"`
}

func (req employeeRequest) toEmployee() *employee.Employee {
	return &employee.Employee{
		Name:          strings.TrimSpace(req.Name),
		NationalID:    req.NationalID,
		AccountNumber: req.AccountNumber,
		RERANumber:    strings.TrimSpace(req.RERANumber),
		TotalSales:    req.TotalSales,
		SuperiorName:  req.SuperiorName,
		PhotoURL:      req.PhotoURL,
		OngoingWork:   req.OngoingWork,
	}
}

type bookingRequest struct {
	PropertyID    string          `json:"property_id" validate:"required"`
	PlotNumber    int             `json:"plot_number" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	ClientName    string          `json:"client_name" validate:"required"`
	ClientPhone   string          `json:"client_phone" validate:"required"`
	ClientAadhar  string          `json:"client_aadhar" validate:"required"`
	CashPayment   decimal.Decimal `json:"cash_payment"`
	ChequePayment decimal.Decimal `json:"cheque_payment"`
}

func (req bookingRequest) toRequest() booking.Request {
	return booking.Request{
		PropertyID:       strings.TrimSpace(req.PropertyID),
		PlotNumber:       req.PlotNumber,
		Amount:           req.Amount,
		ClientName:       req.ClientName,
		ClientPhone:      req.ClientPhone,
		ClientNationalID: strings.TrimSpace(req.ClientAadhar),
		CashPayment:      req.CashPayment,
		ChequePayment:    req.ChequePayment,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

type paymentRequest struct {
	CashPayment   decimal.Decimal `json:"cash_payment"`
	ChequePayment decimal.Decimal `json:"cheque_payment"`
}

// listParams reads page, limit and search. Values that do not parse fall
// back to the defaults.
func listParams(r *http.Request) query.Params {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return query.Params{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(q.Get("search")),
	}
}
