// Package sqlite implements the back-office store on SQLite through gorm.
// It is meant for single-node deployments and local development; one
// connection serializes every write.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	backoffice "github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/store"
	"github.com/havelihousing/backoffice/types"
	"github.com/havelihousing/backoffice/user"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store on a gorm SQLite database.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open opens the SQLite database at path. ":memory:" gives a private
// in-memory database that lives as long as the store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: open %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: %w", err)
	}
	// One connection: SQLite allows a single writer, and an in-memory
	// database is private to its connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.Exec(`PRAGMA foreign_keys = ON`).Error; err != nil {
		return nil, fmt.Errorf("backoffice/sqlite: enable foreign keys: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying gorm database for direct access.
func (s *Store) DB() *gorm.DB { return s.db }

// Migrate creates tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	err := db.AutoMigrate(
		&propertyModel{},
		&employeeModel{},
		&clientModel{},
		&bookingModel{},
		&userModel{},
	)
	if err != nil {
		return fmt.Errorf("backoffice/sqlite: auto migrate: %w", err)
	}

	err = db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_plot_key
    ON bookings (property_id, plot_number)
    WHERE status IN ('pending', 'confirmed')`).Error
	if err != nil {
		return fmt.Errorf("backoffice/sqlite: create active plot index: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ==================== Property Store ====================

func (s *Store) CreateProperty(ctx context.Context, p *property.Property) error {
	if err := s.db.WithContext(ctx).Create(toPropertyModel(p)).Error; err != nil {
		return wrap("create property", err)
	}
	return nil
}

func (s *Store) GetProperty(ctx context.Context, propertyID id.PropertyID) (*property.Property, error) {
	var m propertyModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", propertyID.String()).Error; err != nil {
		if isNotFound(err) {
			return nil, backoffice.ErrPropertyNotFound
		}
		return nil, wrap("get property", err)
	}
	return fromPropertyModel(&m)
}

func (s *Store) ListProperties(ctx context.Context, opts property.ListOpts) ([]*property.Property, int64, error) {
	var models []propertyModel
	total, err := s.list(ctx, &models, opts.Params, createdOrder,
		search(opts.Search, "name", "city", "area", "specification"))
	if err != nil {
		return nil, 0, wrap("list properties", err)
	}

	result := make([]*property.Property, len(models))
	for i := range models {
		p, err := fromPropertyModel(&models[i])
		if err != nil {
			return nil, 0, err
		}
		result[i] = p
	}
	return result, total, nil
}

func (s *Store) UpdateProperty(ctx context.Context, p *property.Property) error {
	res := s.db.WithContext(ctx).
		Select("*").Omit("created_at").
		Where("id = ?", p.ID.String()).
		Updates(toPropertyModel(p))
	if res.Error != nil {
		return wrap("update property", res.Error)
	}
	if res.RowsAffected == 0 {
		return backoffice.ErrPropertyNotFound
	}
	return nil
}

func (s *Store) DeleteProperty(ctx context.Context, propertyID id.PropertyID) error {
	res := s.db.WithContext(ctx).Delete(&propertyModel{}, "id = ?", propertyID.String())
	if res.Error != nil {
		return wrap("delete property", res.Error)
	}
	if res.RowsAffected == 0 {
		return backoffice.ErrPropertyNotFound
	}
	return nil
}

// ==================== Employee Store ====================

func (s *Store) CreateEmployee(ctx context.Context, e *employee.Employee) error {
	if err := s.db.WithContext(ctx).Create(toEmployeeModel(e)).Error; err != nil {
		return wrap("create employee", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	var m employeeModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", employeeID.String()).Error; err != nil {
		if isNotFound(err) {
			return nil, backoffice.ErrEmployeeNotFound
		}
		return nil, wrap("get employee", err)
	}
	return fromEmployeeModel(&m)
}

func (s *Store) ListEmployees(ctx context.Context, opts employee.ListOpts) ([]*employee.Employee, int64, error) {
	var models []employeeModel
	total, err := s.list(ctx, &models, opts.Params, createdOrder,
		search(opts.Search, "name", "rera_number", "superior_name"))
	if err != nil {
		return nil, 0, wrap("list employees", err)
	}

	result := make([]*employee.Employee, len(models))
	for i := range models {
		e, err := fromEmployeeModel(&models[i])
		if err != nil {
			return nil, 0, err
		}
		result[i] = e
	}
	return result, total, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e *employee.Employee) error {
	res := s.db.WithContext(ctx).
		Select("*").Omit("created_at").
		Where("id = ?", e.ID.String()).
		Updates(toEmployeeModel(e))
	if res.Error != nil {
		return wrap("update employee", res.Error)
	}
	if res.RowsAffected == 0 {
		return backoffice.ErrEmployeeNotFound
	}
	return nil
}

// ==================== Client Store ====================

func (s *Store) GetClient(ctx context.Context, clientID id.ClientID) (*client.Client, error) {
	return findClient(s.db.WithContext(ctx), "id = ?", clientID.String())
}

func (s *Store) GetClientByNationalID(ctx context.Context, nationalID string) (*client.Client, error) {
	return findClient(s.db.WithContext(ctx), "aadhar_number = ?", nationalID)
}

func findClient(db *gorm.DB, cond string, arg any) (*client.Client, error) {
	var m clientModel
	if err := db.First(&m, cond, arg).Error; err != nil {
		if isNotFound(err) {
			return nil, backoffice.ErrClientNotFound
		}
		return nil, wrap("get client", err)
	}
	return fromClientModel(&m)
}

func (s *Store) ListClients(ctx context.Context, opts client.ListOpts) ([]*client.Client, int64, error) {
	var models []clientModel
	total, err := s.list(ctx, &models, opts.Params, createdOrder,
		search(opts.Search, "name", "phone_number", "aadhar_number"))
	if err != nil {
		return nil, 0, wrap("list clients", err)
	}

	result := make([]*client.Client, len(models))
	for i := range models {
		c, err := fromClientModel(&models[i])
		if err != nil {
			return nil, 0, err
		}
		result[i] = c
	}
	return result, total, nil
}

func (s *Store) RecordClientPayment(ctx context.Context, clientID id.ClientID, cash, cheque decimal.Decimal) (*client.Client, error) {
	var out *client.Client
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := updateLedger(tx, clientID.String(), func(l types.Ledger) types.Ledger {
			return l.Pay(cash, cheque)
		})
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// updateLedger rewrites a client's ledger inside tx and re-derives status.
func updateLedger(tx *gorm.DB, clientID string, fn func(types.Ledger) types.Ledger) (*client.Client, error) {
	var m clientModel
	if err := tx.First(&m, "id = ?", clientID).Error; err != nil {
		if isNotFound(err) {
			return nil, backoffice.ErrClientNotFound
		}
		return nil, wrap("get client", err)
	}

	l := fn(m.Payment.ledger())
	m.Payment = toLedgerModel(l)
	m.Status = string(client.StatusFor(l))
	m.UpdatedAt = types.Now()

	if err := tx.Save(&m).Error; err != nil {
		return nil, wrap("update client ledger", err)
	}
	return fromClientModel(&m)
}

// ==================== Booking Store ====================

func (s *Store) PlaceBooking(ctx context.Context, pl *booking.Placement) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b := pl.Booking
		if c := pl.NewClient; c != nil {
			if err := tx.Create(toClientModel(c)).Error; err != nil {
				return wrap("create client", err)
			}
		} else {
			_, err := updateLedger(tx, b.ClientID.String(), func(l types.Ledger) types.Ledger {
				return l.Add(pl.Merge)
			})
			if err != nil {
				return err
			}
		}

		if err := tx.Create(toBookingModel(b)).Error; err != nil {
			return wrap("create booking", err)
		}
		return nil
	})
}

func (s *Store) GetBooking(ctx context.Context, bookingID id.BookingID) (*booking.Booking, error) {
	return s.findBooking(ctx, "id = ?", bookingID.String())
}

func (s *Store) ActiveBooking(ctx context.Context, propertyID id.PropertyID, plotNumber int) (*booking.Booking, error) {
	return s.findBooking(ctx,
		"property_id = ? AND plot_number = ? AND status IN ?",
		propertyID.String(), plotNumber, activeStatuses)
}

func (s *Store) findBooking(ctx context.Context, cond string, args ...any) (*booking.Booking, error) {
	var m bookingModel
	if err := s.db.WithContext(ctx).Where(cond, args...).First(&m).Error; err != nil {
		if isNotFound(err) {
			return nil, backoffice.ErrBookingNotFound
		}
		return nil, wrap("get booking", err)
	}
	return fromBookingModel(&m)
}

func (s *Store) ListBookings(ctx context.Context, opts booking.ListOpts) ([]*booking.Booking, int64, error) {
	var models []bookingModel
	total, err := s.list(ctx, &models, opts.Params, "booking_date DESC, id DESC", withStatus(opts.Status))
	if err != nil {
		return nil, 0, wrap("list bookings", err)
	}

	result := make([]*booking.Booking, len(models))
	for i := range models {
		b, err := fromBookingModel(&models[i])
		if err != nil {
			return nil, 0, err
		}
		result[i] = b
	}
	return result, total, nil
}

func (s *Store) SetBookingStatus(ctx context.Context, bookingID id.BookingID, status booking.Status) (booking.Status, error) {
	var from booking.Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.First(&m, "id = ?", bookingID.String()).Error; err != nil {
			if isNotFound(err) {
				return backoffice.ErrBookingNotFound
			}
			return wrap("get booking", err)
		}
		from = booking.Status(m.Status)

		err := tx.Model(&m).Updates(map[string]any{
			"status":     string(status),
			"updated_at": types.Now(),
		}).Error
		if err != nil {
			return wrap("set booking status", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return from, nil
}

// ==================== User Store ====================

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if err := s.db.WithContext(ctx).Create(toUserModel(u)).Error; err != nil {
		return wrap("create user", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	return s.findUser(ctx, "id = ?", userID.String())
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *Store) findUser(ctx context.Context, cond string, arg any) (*user.User, error) {
	var m userModel
	if err := s.db.WithContext(ctx).First(&m, cond, arg).Error; err != nil {
		if isNotFound(err) {
			return nil, backoffice.ErrUserNotFound
		}
		return nil, wrap("get user", err)
	}
	return fromUserModel(&m)
}

// ==================== Helpers ====================

const createdOrder = "created_at ASC, id ASC"

var activeStatuses = []string{string(booking.StatusPending), string(booking.StatusConfirmed)}

// list counts the rows matching filter and loads one page of them into
// dest, a pointer to a slice of models.
func (s *Store) list(ctx context.Context, dest any, p query.Params, order string, filter func(*gorm.DB) *gorm.DB) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(dest).Scopes(filter).Count(&total).Error; err != nil {
		return 0, err
	}
	err := s.db.WithContext(ctx).
		Scopes(filter, paginate(p)).
		Order(order).
		Find(dest).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// paginate is a gorm scope applying the offset and limit of normalized
// params.
func paginate(p query.Params) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Skip()).Limit(p.Limit)
	}
}

// search is a gorm scope matching text as a literal substring of any of the
// columns. SQLite's LIKE ignores ASCII case.
func search(text string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if text == "" {
			return db
		}
		pattern := likePattern(text)
		ors := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			ors[i] = c + ` LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		return db.Where("("+strings.Join(ors, " OR ")+")", args...)
	}
}

func withStatus(status booking.Status) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("status = ?", string(status))
	}
}

// likePattern escapes LIKE metacharacters so text matches literally.
func likePattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(text) + "%"
}

// wrap maps unique violations to sentinels and wraps everything else.
func wrap(op string, err error) error {
	if dup := uniqueViolation(err); dup != nil {
		return dup
	}
	return fmt.Errorf("backoffice/sqlite: %s: %w", op, err)
}

// uniqueViolation maps SQLite's "UNIQUE constraint failed: table.column"
// message to a sentinel. It returns nil for any other error.
func uniqueViolation(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(msg, "bookings.property_id"):
		return backoffice.ErrPlotBooked
	case strings.Contains(msg, "clients.aadhar_number"):
		return backoffice.ErrClientExists
	case strings.Contains(msg, "properties.rera_number"):
		return backoffice.ErrPropertyExists
	case strings.Contains(msg, "employees.rera_number"):
		return backoffice.ErrEmployeeExists
	case strings.Contains(msg, "users.email"):
		return backoffice.ErrUserExists
	default:
		return backoffice.ErrAlreadyExists
	}
}

// isNotFound checks if an error wraps gorm.ErrRecordNotFound.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
