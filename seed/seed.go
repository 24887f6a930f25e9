// Package seed loads the demo data a fresh back office starts with: two
// sales accounts, the current property catalog, one employee and one
// part-paid sale.
//
// Run is idempotent. Records that already exist are skipped, so it is safe
// to call on every deploy.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/types"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "12345678"

// Account is a seeded back-office login.
type Account struct {
	Email string
	Name  string
}

var Accounts = []Account{
	{Email: "harshit@havelhousing.com", Name: "Harshit"},
	{Email: "shantanu@havelhousing.com", Name: "Shantanu"},
}

func mapURL(q string) string { return "https://maps.google.com/?q=" + q }

// Properties returns fresh copies of the seeded catalog.
func Properties() []*property.Property {
	return []*property.Property{
		{
			Name:          "VRB Sparkle",
			RERANumber:    "RAJ2025VS002",
			Address:       property.Address{City: "Jaipur", Area: "Tonk Road"},
			Specification: "Luxury Modern Community",
			Rate:          types.Rupees(2800),
			TotalPlots:    85,
			Description:   "Luxury plotted development with wide roads, green zones, and proximity to key locations",
			MapURL:        mapURL("VRB+Sparkle+Tonk+Road+Jaipur"),
		},
		{
			Name:          "VRB Sapphire Park",
			RERANumber:    "RAJ2025VSP003",
			Address:       property.Address{City: "Jaipur", Area: "Kalwar Road"},
			Specification: "Modern Vastu-Compliant Layout",
			Rate:          types.Rupees(3000),
			TotalPlots:    95,
			Description:   "A modern gated community with well-laid roads and eco-friendly planning",
			MapURL:        mapURL("VRB+Sapphire+Park+Kalwar+Road+Jaipur"),
		},
		{
			Name:          "Elite Word Dreamworld City",
			RERANumber:    "RAJ2025EDC004",
			Address:       property.Address{City: "Jaipur", Area: "Jagatpura"},
			Specification: "Smart Investment Destination",
			Rate:          types.Rupees(3200),
			TotalPlots:    150,
			Description:   "Smart city plots with premium amenities, future metro connectivity, and modern infrastructure",
			MapURL:        mapURL("Elite+Dreamworld+City+Jagatpura+Jaipur"),
		},
		{
			Name:          "VRB World City",
			RERANumber:    "RAJ2025VWC005",
			Address:       property.Address{City: "Jaipur", Area: "Sikar Road"},
			Specification: "Affordable Family Housing",
			Rate:          types.Rupees(2700),
			TotalPlots:    110,
			Description:   "Affordable residential plots with high-growth potential due to proximity to major highways",
			MapURL:        mapURL("VRB+World+City+Sikar+Road+Jaipur"),
		},
		{
			Name:          "Ring Avenue Ring Enclave",
			RERANumber:    "RAJ2025RARE006",
			Address:       property.Address{City: "Jaipur", Area: "Ring Road"},
			Specification: "Eco-Friendly Green Living",
			Rate:          types.Rupees(2600),
			TotalPlots:    100,
			Description:   "Strategically located project with seamless ring road access and lush green environment",
			MapURL:        mapURL("Ring+Avenue+Enclave+Ring+Road+Jaipur"),
		},
	}
}

// Employees returns fresh copies of the seeded staff.
func Employees() []*employee.Employee {
	return []*employee.Employee{
		{
			Name:          "Sandeep Meena",
			NationalID:    "7890-1234-5678",
			AccountNumber: "100200300456",
			RERANumber:    "RAJ2025EMP001",
			TotalSales:    5,
			SuperiorName:  "Anil Rathore",
			PhotoURL:      "https://yourdomain.com/images/sandeep.jpg",
			OngoingWork:   []string{},
		},
	}
}

// DemoSale is the part-paid sale recorded against the first property.
func DemoSale(propertyID id.PropertyID) booking.Request {
	return booking.Request{
		PropertyID:       propertyID.String(),
		PlotNumber:       21,
		Amount:           types.Rupees(600000),
		ClientName:       "Amit Sharma",
		ClientPhone:      "9876543210",
		ClientNationalID: "1234-5678-9012",
		CashPayment:      types.Rupees(300000),
		ChequePayment:    types.Rupees(200000),
	}
}

// Summary counts what one Run created and what it found already present.
type Summary struct {
	Users      int
	Properties int
	Employees  int
	Bookings   int
	Skipped    int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d properties=%d employees=%d bookings=%d skipped=%d",
		s.Users, s.Properties, s.Employees, s.Bookings, s.Skipped)
}

// Run seeds e. The engine must already be started.
func Run(ctx context.Context, e *backoffice.Engine, logger *slog.Logger) (Summary, error) {
	var sum Summary

	var seller id.UserID
	for _, a := range Accounts {
		u, err := e.RegisterUser(ctx, a.Email, a.Name, DefaultPassword)
		switch {
		case err == nil:
			sum.Users++
		case backoffice.IsConflict(err):
			sum.Skipped++
			// The password may have been changed since; then the demo
			// sale is recorded without a seller.
			if u, err = e.Authenticate(ctx, a.Email, DefaultPassword); err != nil {
				u = nil
			}
		default:
			return sum, fmt.Errorf("seed: user %s: %w", a.Email, err)
		}
		if u != nil && seller.IsNil() {
			seller = u.ID
		}
	}

	var first id.PropertyID
	for i, p := range Properties() {
		err := e.CreateProperty(ctx, p)
		switch {
		case err == nil:
			sum.Properties++
		case backoffice.IsConflict(err):
			sum.Skipped++
			existing, lookupErr := findProperty(ctx, e, p)
			if lookupErr != nil {
				return sum, lookupErr
			}
			p = existing
		default:
			return sum, fmt.Errorf("seed: property %s: %w", p.RERANumber, err)
		}
		if i == 0 && p != nil {
			first = p.ID
		}
	}

	for _, emp := range Employees() {
		err := e.CreateEmployee(ctx, emp)
		switch {
		case err == nil:
			sum.Employees++
		case backoffice.IsConflict(err):
			sum.Skipped++
		default:
			return sum, fmt.Errorf("seed: employee %s: %w", emp.RERANumber, err)
		}
	}

	if !first.IsNil() {
		_, err := e.CreateBooking(ctx, seller, DemoSale(first))
		switch {
		case err == nil:
			sum.Bookings++
		case backoffice.IsConflict(err):
			sum.Skipped++
		default:
			return sum, fmt.Errorf("seed: demo sale: %w", err)
		}
	}

	logger.InfoContext(ctx, "seed complete",
		"users", sum.Users,
		"properties", sum.Properties,
		"employees", sum.Employees,
		"bookings", sum.Bookings,
		"skipped", sum.Skipped,
	)
	return sum, nil
}

// findProperty looks up a seeded property that already exists. It returns
// nil when the RERA number is taken by a property with another name.
func findProperty(ctx context.Context, e *backoffice.Engine, want *property.Property) (*property.Property, error) {
	params := query.Params{Page: 1, Limit: query.MaxLimit, Search: want.Name}
	for {
		page, err := e.ListProperties(ctx, property.ListOpts{Params: params})
		if err != nil {
			return nil, fmt.Errorf("seed: find property %s: %w", want.RERANumber, err)
		}
		for _, p := range page.Items {
			if p.RERANumber == want.RERANumber {
				return p, nil
			}
		}
		if !page.Pagination.HasNext {
			return nil, nil
		}
		params.Page++
	}
}
