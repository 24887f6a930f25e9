package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/types"
	"github.com/havelihousing/backoffice/user"
)

// Amounts are stored as Decimal128 so $add in update pipelines stays exact.

func toDec(d decimal.Decimal) (bson.Decimal128, error) {
	v, err := bson.ParseDecimal128(d.String())
	if err != nil {
		// Decimal128 holds at most 34 significant digits.
		return bson.Decimal128{}, fmt.Errorf("backoffice/mongo: encode decimal %s: %w", d, err)
	}
	return v, nil
}

// decEncoder converts several amounts and keeps the first failure.
type decEncoder struct{ err error }

func (e *decEncoder) dec(d decimal.Decimal) bson.Decimal128 {
	v, err := toDec(d)
	if err != nil && e.err == nil {
		e.err = err
	}
	return v
}

func (e *decEncoder) ledger(l types.Ledger) ledgerModel {
	return ledgerModel{
		Cash:      e.dec(l.Cash),
		Cheque:    e.dec(l.Cheque),
		Total:     e.dec(l.Total),
		Remaining: e.dec(l.Remaining),
	}
}

func fromDec(v bson.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("backoffice/mongo: decode decimal %s: %w", v, err)
	}
	return d, nil
}

// ==================== Ledger model ====================

type ledgerModel struct {
	Cash      bson.Decimal128 `bson:"cash"`
	Cheque    bson.Decimal128 `bson:"cheque"`
	Total     bson.Decimal128 `bson:"total"`
	Remaining bson.Decimal128 `bson:"remaining"`
}

func fromLedgerModel(m ledgerModel) (types.Ledger, error) {
	var (
		l   types.Ledger
		err error
	)
	for _, f := range []struct {
		dst *decimal.Decimal
		src bson.Decimal128
	}{
		{&l.Cash, m.Cash},
		{&l.Cheque, m.Cheque},
		{&l.Total, m.Total},
		{&l.Remaining, m.Remaining},
	} {
		if *f.dst, err = fromDec(f.src); err != nil {
			return types.Ledger{}, err
		}
	}
	return l, nil
}

// ==================== Property model ====================

type addressModel struct {
	City string `bson:"city"`
	Area string `bson:"area"`
}

type propertyModel struct {
	ID            string          `bson:"_id"`
	Name          string          `bson:"name"`
	RERANumber    string          `bson:"rera_number"`
	Address       addressModel    `bson:"address"`
	Specification string          `bson:"specification"`
	Rate          bson.Decimal128 `bson:"rate"`
	TotalPlots    int             `bson:"total_plots"`
	Description   string          `bson:"description"`
	MapURL        string          `bson:"map_url"`
	CreatedAt     time.Time       `bson:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at"`
}

func toPropertyModel(p *property.Property) (*propertyModel, error) {
	var enc decEncoder
	m := &propertyModel{
		ID:            p.ID.String(),
		Name:          p.Name,
		RERANumber:    p.RERANumber,
		Address:       addressModel(p.Address),
		Specification: p.Specification,
		Rate:          enc.dec(p.Rate),
		TotalPlots:    p.TotalPlots,
		Description:   p.Description,
		MapURL:        p.MapURL,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	return m, enc.err
}

func fromPropertyModel(m *propertyModel) (*property.Property, error) {
	pid, err := id.ParsePropertyID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/mongo: parse property id: %w", err)
	}
	rate, err := fromDec(m.Rate)
	if err != nil {
		return nil, err
	}
	return &property.Property{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            pid,
		Name:          m.Name,
		RERANumber:    m.RERANumber,
		Address:       property.Address(m.Address),
		Specification: m.Specification,
		Rate:          rate,
		TotalPlots:    m.TotalPlots,
		Description:   m.Description,
		MapURL:        m.MapURL,
	}, nil
}

// ==================== Employee model ====================

type employeeModel struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	NationalID    string    `bson:"aadhar_number"`
	AccountNumber string    `bson:"account_number"`
	RERANumber    string    `bson:"rera_number"`
	TotalSales    int       `bson:"total_sales"`
	SuperiorName  string    `bson:"superior_name"`
	PhotoURL      string    `bson:"photo_url"`
	OngoingWork   []string  `bson:"ongoing_work"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

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
		return nil, fmt.Errorf("backoffice/mongo: parse employee id: %w", err)
	}
	work := m.OngoingWork
	if work == nil {
		work = []string{}
	}
	return &employee.Employee{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
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
	ID         string      `bson:"_id"`
	Name       string      `bson:"name"`
	NationalID string      `bson:"aadhar_number"`
	Phone      string      `bson:"phone_number"`
	ProjectID  string      `bson:"project_id"`
	PlotNumber int         `bson:"plot_number"`
	Payment    ledgerModel `bson:"payment"`
	Status     string      `bson:"status"`
	SaledBy    string      `bson:"saled_by"`
	CreatedAt  time.Time   `bson:"created_at"`
	UpdatedAt  time.Time   `bson:"updated_at"`
}

func toClientModel(c *client.Client) (*clientModel, error) {
	var enc decEncoder
	m := &clientModel{
		ID:         c.ID.String(),
		Name:       c.Name,
		NationalID: c.NationalID,
		Phone:      c.Phone,
		ProjectID:  c.ProjectID.String(),
		PlotNumber: c.PlotNumber,
		Payment:    enc.ledger(c.Payment),
		Status:     string(c.Status),
		SaledBy:    c.SaledBy.String(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
	return m, enc.err
}

func fromClientModel(m *clientModel) (*client.Client, error) {
	cid, err := id.ParseClientID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/mongo: parse client id: %w", err)
	}
	projectID, err := parseOptional(m.ProjectID, id.ParsePropertyID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/mongo: parse client project id: %w", err)
	}
	saledBy, err := parseOptional(m.SaledBy, id.ParseUserID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/mongo: parse client saled_by: %w", err)
	}
	payment, err := fromLedgerModel(m.Payment)
	if err != nil {
		return nil, err
	}
	return &client.Client{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         cid,
		Name:       m.Name,
		NationalID: m.NationalID,
		Phone:      m.Phone,
		ProjectID:  projectID,
		PlotNumber: m.PlotNumber,
		Payment:    payment,
		Status:     client.Status(m.Status),
		SaledBy:    saledBy,
	}, nil
}

// ==================== Booking model ====================

// bookingModel carries Active alongside Status so the partial unique index
// on (property_id, plot_number) can cover exactly the bookings that hold a
// plot.
type bookingModel struct {
	ID          string          `bson:"_id"`
	ClientID    string          `bson:"client_id"`
	PropertyID  string          `bson:"property_id"`
	PlotNumber  int             `bson:"plot_number"`
	BookingDate time.Time       `bson:"booking_date"`
	Status      string          `bson:"status"`
	Active      bool            `bson:"active"`
	Amount      bson.Decimal128 `bson:"amount"`
	Payment     ledgerModel     `bson:"payment"`
	SaledBy     string          `bson:"saled_by"`
	CreatedAt   time.Time       `bson:"created_at"`
	UpdatedAt   time.Time       `bson:"updated_at"`
}

func toBookingModel(b *booking.Booking) (*bookingModel, error) {
	var enc decEncoder
	m := &bookingModel{
		ID:          b.ID.String(),
		ClientID:    b.ClientID.String(),
		PropertyID:  b.PropertyID.String(),
		PlotNumber:  b.PlotNumber,
		BookingDate: b.BookingDate,
		Status:      string(b.Status),
		Active:      b.Status.Active(),
		Amount:      enc.dec(b.Amount),
		Payment:     enc.ledger(b.Payment),
		SaledBy:     b.SaledBy.String(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	return m, enc.err
}

func fromBookingModel(m *bookingModel) (*booking.Booking, error) {
	bid, err := id.ParseBookingID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/mongo: parse booking id: %w", err)
	}
	cid, err := id.ParseClientID(m.ClientID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/mongo: parse booking client id: %w", err)
	}
	pid, err := id.ParsePropertyID(m.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/mongo: parse booking property id: %w", err)
	}
	saledBy, err := parseOptional(m.SaledBy, id.ParseUserID)
	if err != nil {
		return nil, fmt.Errorf("backoffice/mongo: parse booking saled_by: %w", err)
	}
	amount, err := fromDec(m.Amount)
	if err != nil {
		return nil, err
	}
	payment, err := fromLedgerModel(m.Payment)
	if err != nil {
		return nil, err
	}
	return &booking.Booking{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          bid,
		ClientID:    cid,
		PropertyID:  pid,
		PlotNumber:  m.PlotNumber,
		BookingDate: m.BookingDate,
		Status:      booking.Status(m.Status),
		Amount:      amount,
		Payment:     payment,
		SaledBy:     saledBy,
	}, nil
}

// ==================== User model ====================

type userModel struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	PasswordHash []byte    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

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
		return nil, fmt.Errorf("backoffice/mongo: parse user id: %w", err)
	}
	return &user.User{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
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
