package postgres

import (
	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/user"
)

// Constraint and unique index names, matched against SQLSTATE 23505.
const (
	conPropertyRERA = "properties_rera_number_key"
	conEmployeeRERA = "employees_rera_number_key"
	conClientAadhar = "clients_aadhar_number_key"
	conActivePlot   = "bookings_active_plot_key"
	conUserEmail    = "users_email_key"
)

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ==================== Property ====================

const propertyColumns = `id, name, rera_number, city, area, specification, rate,
	total_plots, description, map_url, created_at, updated_at`

func propertyArgs(p *property.Property) []any {
	return []any{
		p.ID, p.Name, p.RERANumber, p.Address.City, p.Address.Area, p.Specification, p.Rate,
		p.TotalPlots, p.Description, p.MapURL, p.CreatedAt, p.UpdatedAt,
	}
}

func scanProperty(row rowScanner) (*property.Property, error) {
	p := new(property.Property)
	err := row.Scan(
		&p.ID, &p.Name, &p.RERANumber, &p.Address.City, &p.Address.Area, &p.Specification, &p.Rate,
		&p.TotalPlots, &p.Description, &p.MapURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ==================== Employee ====================

const employeeColumns = `id, name, aadhar_number, account_number, rera_number, total_sales,
	superior_name, photo_url, ongoing_work, created_at, updated_at`

func employeeArgs(e *employee.Employee) []any {
	return []any{
		e.ID, e.Name, e.NationalID, e.AccountNumber, e.RERANumber, e.TotalSales,
		e.SuperiorName, e.PhotoURL, orEmpty(e.OngoingWork), e.CreatedAt, e.UpdatedAt,
	}
}

// orEmpty keeps a nil slice from encoding as NULL.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scanEmployee(row rowScanner) (*employee.Employee, error) {
	e := new(employee.Employee)
	err := row.Scan(
		&e.ID, &e.Name, &e.NationalID, &e.AccountNumber, &e.RERANumber, &e.TotalSales,
		&e.SuperiorName, &e.PhotoURL, &e.OngoingWork, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.OngoingWork == nil {
		e.OngoingWork = []string{}
	}
	return e, nil
}

// ==================== Client ====================

const clientColumns = `id, name, aadhar_number, phone_number, project_id, plot_number,
	pay_cash, pay_cheque, pay_total, pay_remaining, status, saled_by, created_at, updated_at`

func clientArgs(c *client.Client) []any {
	return []any{
		c.ID, c.Name, c.NationalID, c.Phone, c.ProjectID.String(), c.PlotNumber,
		c.Payment.Cash, c.Payment.Cheque, c.Payment.Total, c.Payment.Remaining,
		string(c.Status), c.SaledBy.String(), c.CreatedAt, c.UpdatedAt,
	}
}

func scanClient(row rowScanner) (*client.Client, error) {
	c := new(client.Client)
	var status string
	err := row.Scan(
		&c.ID, &c.Name, &c.NationalID, &c.Phone, &c.ProjectID, &c.PlotNumber,
		&c.Payment.Cash, &c.Payment.Cheque, &c.Payment.Total, &c.Payment.Remaining,
		&status, &c.SaledBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = client.Status(status)
	return c, nil
}

// ==================== Booking ====================

const bookingColumns = `id, client_id, property_id, plot_number, booking_date, status, amount,
	pay_cash, pay_cheque, pay_total, pay_remaining, saled_by, created_at, updated_at`

func bookingArgs(b *booking.Booking) []any {
	return []any{
		b.ID, b.ClientID, b.PropertyID, b.PlotNumber, b.BookingDate, string(b.Status), b.Amount,
		b.Payment.Cash, b.Payment.Cheque, b.Payment.Total, b.Payment.Remaining,
		b.SaledBy.String(), b.CreatedAt, b.UpdatedAt,
	}
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	b := new(booking.Booking)
	var status string
	err := row.Scan(
		&b.ID, &b.ClientID, &b.PropertyID, &b.PlotNumber, &b.BookingDate, &status, &b.Amount,
		&b.Payment.Cash, &b.Payment.Cheque, &b.Payment.Total, &b.Payment.Remaining,
		&b.SaledBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = booking.Status(status)
	return b, nil
}

// ==================== User ====================

const userColumns = `id, email, name, password_hash, created_at, updated_at`

func userArgs(u *user.User) []any {
	return []any{u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt}
}

func scanUser(row rowScanner) (*user.User, error) {
	u := new(user.User)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}
