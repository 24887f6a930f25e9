package sqlite

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/types"
	"github.com/havelihousing/backoffice/user"
)

// Amounts are TEXT columns: SQLite's NUMERIC affinity would turn fractional
// rupees into floating point.

type ledgerModel struct {
	Cash      decimal.Decimal `gorm:"type:text;not null"`
	Cheque    decimal.Decimal `gorm:"type:text;not null"`
	Total     decimal.Decimal `gorm:"type:text;not null"`
	Remaining decimal.Decimal `gorm:"type:text;not null"`
}

func toLedgerModel(l types.Ledger) ledgerModel {
	return ledgerModel(l)
}

func (m ledgerModel) ledger() types.Ledger {
	return types.Ledger(m)
}

// ==================== Property model ====================

type propertyModel struct {
	ID            string          `gorm:"primaryKey"`
	Name          string          `gorm:"not null"`
	RERANumber    string          `gorm:"column:rera_number;not null;uniqueIndex:properties_rera_number_key"`
	City          string          `gorm:"not null"`
	Area          string          `gorm:"not null"`
	Specification string          `gorm:"not null"`
	Rate          decimal.Decimal `gorm:"type:text;not null"`
	TotalPlots    int             `gorm:"not null"`
	Description   string          `gorm:"not null"`
	MapURL        string          `gorm:"column:map_url;not null"`
	CreatedAt     time.Time       `gorm:"not null;index:idx_properties_created,priority:1"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

func (propertyModel) TableName() string { return "properties" }

func toPropertyModel(p *property.Property) *propertyModel {
	return &propertyModel{
		ID:            p.ID.String(),
		Name:          p.Name,
		RERANumber:    p.RERANumber,
		City:          p.Address.City,
		Area:          p.Address.Area,
		Specification: p.Specification,
		Rate:          p.Rate,
		TotalPlots:    p.TotalPlots,
		Description:   p.Description,
		MapURL:        p.MapURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromPropertyModel(m *propertyModel) (*property.Property, error) {
	pid, err := id.ParsePropertyID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse property id: %w", err)
	}
	return &property.Property{
		Entity:        types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:            pid,
		Name:          m.Name,
		RERANumber:    m.RERANumber,
		Address:       property.Address{City: m.City, Area: m.Area},
		Specification: m.Specification,
		Rate:          m.Rate,
		TotalPlots:    m.TotalPlots,
		Description:   m.Description,
		MapURL:        m.MapURL,
	}, nil
}

// ==================== Employee model ====================

type employeeModel struct {
	ID            string    `gorm:"primaryKey"`
	Name          string    `gorm:"not null"`
	NationalID    string    `gorm:"column:aadhar_number;not null"`
	AccountNumber string    `gorm:"not null"`
	RERANumber    string    `gorm:"column:rera_number;not null;uniqueIndex:employees_rera_number_key"`
	TotalSales    int       `gorm:"not null"`
	SuperiorName  string    `gorm:"not null"`
	PhotoURL      string    `gorm:"column:photo_url;not null"`
	OngoingWork   []string  `gorm:"serializer:json;not null"`
	CreatedAt     time.Time `gorm:"not null;index:idx_employees_created"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (employeeModel) TableName() string { return "employees" }

func toEmployeeModel(e *employee.Employee) *employeeModel {
	work := e.OngoingWork
	if work == nil {
		work = []string{}
	}
	return &employeeModel{
		ID:            e.ID.String(),
		Name:          e.Name,
		NationalID:    e.NationalID,
		AccountNumber: e.AccountNumber,
		RERANumber:    e.RERANumber,
		TotalSales:    e.TotalSales,
		SuperiorName:  e.SuperiorName,
		PhotoURL:      e.PhotoURL,
		OngoingWork:   work,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func fromEmployeeModel(m *employeeModel) (*employee.Employee, error) {
	eid, err := id.ParseEmployeeID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse employee id: %w", err)
	}
	work := m.OngoingWork
	if work == nil {
		work = []string{}
	}
	return &employee.Employee{
		Entity:        types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:            eid,
		Name:          m.Name,
		NationalID:    m.NationalID,
		AccountNumber: m.AccountNumber,
		RERANumber:    m.RERANumber,
		TotalSales:    m.TotalSales,
		SuperiorName:  m.SuperiorName,
		PhotoURL:      m.PhotoURL,
		OngoingWork:   work,
	}, nil
}

// ==================== Client model ====================

type clientModel struct {
	ID         string      `gorm:"primaryKey"`
	Name       string      `gorm:"not null"`
	NationalID string      `gorm:"column:aadhar_number;not null;uniqueIndex:clients_aadhar_number_key"`
	Phone      string      `gorm:"column:phone_number;not null"`
	ProjectID  string      `gorm:"not null"`
	PlotNumber int         `gorm:"not null"`
	Payment    ledgerModel `gorm:"embedded;embeddedPrefix:pay_"`
	Status     string      `gorm:"not null"`
	SaledBy    string      `gorm:"not null"`
	CreatedAt  time.Time   `gorm:"not null;index:idx_clients_created"`
	UpdatedAt  time.Time   `gorm:"not null"`
}

func (clientModel) TableName() string { return "clients" }

func toClientModel(c *client.Client) *clientModel {
	return &clientModel{
		ID:         c.ID.String(),
		Name:       c.Name,
		NationalID: c.NationalID,
		Phone:      c.Phone,
		ProjectID:  c.ProjectID.String(),
		PlotNumber: c.PlotNumber,
		Payment:    toLedgerModel(c.Payment),
		Status:     string(c.Status),
		SaledBy:    c.SaledBy.String(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromClientModel(m *clientModel) (*client.Client, error) {
	cid, err := id.ParseClientID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse client id: %w", err)
	}
	projectID, err := parseOptional(m.ProjectID, id.ParsePropertyID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse client project id: %w", err)
	}
	saledBy, err := parseOptional(m.SaledBy, id.ParseUserID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse client saled_by: %w", err)
	}
	return &client.Client{
		Entity:     types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:         cid,
		Name:       m.Name,
		NationalID: m.NationalID,
		Phone:      m.Phone,
		ProjectID:  projectID,
		PlotNumber: m.PlotNumber,
		Payment:    m.Payment.ledger(),
		Status:     client.Status(m.Status),
		SaledBy:    saledBy,
	}, nil
}

// ==================== Booking model ====================

// The partial unique index on (property_id, plot_number) is created by
// Migrate; gorm tags cannot express its WHERE clause.
type bookingModel struct {
	ID          string          `gorm:"primaryKey"`
	ClientID    string          `gorm:"not null;index:idx_bookings_client"`
	PropertyID  string          `gorm:"not null"`
	PlotNumber  int             `gorm:"not null"`
	BookingDate time.Time       `gorm:"not null;index:idx_bookings_date"`
	Status      string          `gorm:"not null;index:idx_bookings_status"`
	Amount      decimal.Decimal `gorm:"type:text;not null"`
	Payment     ledgerModel     `gorm:"embedded;embeddedPrefix:pay_"`
	SaledBy     string          `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

func (bookingModel) TableName() string { return "bookings" }

func toBookingModel(b *booking.Booking) *bookingModel {
	return &bookingModel{
		ID:          b.ID.String(),
		ClientID:    b.ClientID.String(),
		PropertyID:  b.PropertyID.String(),
		PlotNumber:  b.PlotNumber,
		BookingDate: b.BookingDate,
		Status:      string(b.Status),
		Amount:      b.Amount,
		Payment:     toLedgerModel(b.Payment),
		SaledBy:     b.SaledBy.String(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func fromBookingModel(m *bookingModel) (*booking.Booking, error) {
	bid, err := id.ParseBookingID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse booking id: %w", err)
	}
	cid, err := id.ParseClientID(m.ClientID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse booking client id: %w", err)
	}
	pid, err := id.ParsePropertyID(m.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse booking property id: %w", err)
	}
	saledBy, err := parseOptional(m.SaledBy, id.ParseUserID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse booking saled_by: %w", err)
	}
	return &booking.Booking{
		Entity:      types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:          bid,
		ClientID:    cid,
		PropertyID:  pid,
		PlotNumber:  m.PlotNumber,
		BookingDate: m.BookingDate.UTC(),
		Status:      booking.Status(m.Status),
		Amount:      m.Amount,
		Payment:     m.Payment.ledger(),
		SaledBy:     saledBy,
	}, nil
}

// ==================== User model ====================

type userModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"not null;uniqueIndex:users_email_key"`
	Name         string    `gorm:"not null"`
	PasswordHash []byte    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (userModel) TableName() string { return "users" }

func toUserModel(u *user.User) *userModel {
	return &userModel{
		ID:           u.ID.String(),
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromUserModel(m *userModel) (*user.User, error) {
	uid, err := id.ParseUserID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: parse user id: %w", err)
	}
	return &user.User{
		Entity:       types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:           uid,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
	}, nil
}

func parseOptional(s string, parse func(string) (id.ID, error)) (id.ID, error) {
	if s == "" {
		return id.Nil, nil
	}
	return parse(s)
}
