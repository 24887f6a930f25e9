package property

import (
	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/types"
)

type Address struct {
	City string `json:"city"`
	Area string `json:"area"`
}

// Property is a plotted development offered for sale. RERANumber is the
// state registration number and is unique across properties.
type Property struct {
	types.Entity
	ID            id.PropertyID   `json:"_id"`
	Name          string          `json:"name"`
	RERANumber    string          `json:"rera_number"`
	Address       Address         `json:"address"`
	Specification string          `json:"specification"`
	Rate          decimal.Decimal `json:"rate"`
	TotalPlots    int             `json:"total_plots"`
	Description   string          `json:"description"`
	MapURL        string          `json:"map_url"`
}

// HasPlot reports whether n is a valid plot number for the property. A
// property without a declared plot count accepts any positive number.
func (p *Property) HasPlot(n int) bool {
	if n < 1 {
		return false
	}
	return p.TotalPlots <= 0 || n <= p.TotalPlots
}

// Update is a partial update; nil fields are left unchanged.
type Update struct {
	Name          *string          `json:"name,omitempty"`
	RERANumber    *string          `json:"rera_number,omitempty"`
	Address       *Address         `json:"address,omitempty"`
	Specification *string          `json:"specification,omitempty"`
	Rate          *decimal.Decimal `json:"rate,omitempty"`
	TotalPlots    *int             `json:"total_plots,omitempty"`
	Description   *string          `json:"description,omitempty"`
	MapURL        *string          `json:"map_url,omitempty"`
}

// Apply copies the set fields into p and reports whether any value changed.
func (u Update) Apply(p *Property) bool {
	changed := false
	set := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	set(&p.Name, u.Name)
	set(&p.RERANumber, u.RERANumber)
	set(&p.Specification, u.Specification)
	set(&p.Description, u.Description)
	set(&p.MapURL, u.MapURL)
	if u.Address != nil && p.Address != *u.Address {
		p.Address = *u.Address
		changed = true
	}
	if u.Rate != nil && !p.Rate.Equal(*u.Rate) {
		p.Rate = *u.Rate
		changed = true
	}
	if u.TotalPlots != nil && p.TotalPlots != *u.TotalPlots {
		p.TotalPlots = *u.TotalPlots
		changed = true
	}
	if changed {
		p.Touch()
	}
	return changed
}

// ListOpts filters a property listing. Search matches name, city, area and
// specification.
type ListOpts struct {
	query.Params
}
