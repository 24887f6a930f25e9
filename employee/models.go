package employee

import (
	"slices"

	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/types"
)

// Employee is a sales agent. SuperiorName is free text, not a reference.
type Employee struct {
	types.Entity
	ID            id.EmployeeID `json:"_id"`
	Name          string        `json:"name"`
	NationalID    string        `json:"aadhar_number"`
	AccountNumber string        `json:"account_number"`
	RERANumber    string        `json:"rera_number"`
	TotalSales    int           `json:"total_sales"`
	SuperiorName  string        `json:"superior_name"`
	PhotoURL      string        `json:"photo_url"`
	OngoingWork   []string      `json:"ongoing_work"`
}

type Update struct {
	Name          *string   `json:"name,omitempty"`
	NationalID    *string   `json:"aadhar_number,omitempty"`
	AccountNumber *string   `json:"account_number,omitempty"`
	RERANumber    *string   `json:"rera_number,omitempty"`
	TotalSales    *int      `json:"total_sales,omitempty"`
	SuperiorName  *string   `json:"superior_name,omitempty"`
	PhotoURL      *string   `json:"photo_url,omitempty"`
	OngoingWork   *[]string `json:"ongoing_work,omitempty"`
}

// Apply copies the set fields into e and reports whether any value changed.
func (u Update) Apply(e *Employee) bool {
	changed := false
	set := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	set(&e.Name, u.Name)
	set(&e.NationalID, u.NationalID)
	set(&e.AccountNumber, u.AccountNumber)
	set(&e.RERANumber, u.RERANumber)
	set(&e.SuperiorName, u.SuperiorName)
	set(&e.PhotoURL, u.PhotoURL)
	if u.TotalSales != nil && e.TotalSales != *u.TotalSales {
		e.TotalSales = *u.TotalSales
		changed = true
	}
	if u.OngoingWork != nil && !slices.Equal(e.OngoingWork, *u.OngoingWork) {
		e.OngoingWork = slices.Clone(*u.OngoingWork)
		changed = true
	}
	if changed {
		e.Touch()
	}
	return changed
}

// Performance summarizes an employee's sales against the monthly target.
type Performance struct {
	TotalSales      int `json:"total_sales"`
	OngoingProjects int `json:"ongoing_projects"`
	MonthlyTarget   int `json:"monthly_target"`
	MonthlyAchieved int `json:"monthly_achieved"`
}

// ListOpts filters an employee listing. Search matches name, RERA number
// and superior name.
type ListOpts struct {
	query.Params
}
