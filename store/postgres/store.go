// Package postgres implements the back-office store on PostgreSQL through a
// pgx connection pool. Multi-row writes run in a transaction, and the
// partial unique index on active bookings decides plot conflicts.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

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

// Store implements store.Store on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. Close closes it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for databaseURL and verifies it.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("backoffice/postgres: parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("backoffice/postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("backoffice/postgres: ping: %w", err)
	}
	return New(pool), nil
}

// Pool returns the underlying pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ==================== Property Store ====================

func (s *Store) CreateProperty(ctx context.Context, p *property.Property) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO properties (`+propertyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		propertyArgs(p)...)
	if err != nil {
		return wrap("create property", err)
	}
	return nil
}

func (s *Store) GetProperty(ctx context.Context, propertyID id.PropertyID) (*property.Property, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, propertyID)
	p, err := scanProperty(row)
	if err != nil {
		if isNoRows(err) {
			return nil, backoffice.ErrPropertyNotFound
		}
		return nil, wrap("get property", err)
	}
	return p, nil
}

func (s *Store) ListProperties(ctx context.Context, opts property.ListOpts) ([]*property.Property, int64, error) {
	w := newWhere()
	w.search(opts.Search, "name", "city", "area", "specification")

	result, total, err := list(ctx, s, "properties", propertyColumns, w, createdOrder, opts.Params, scanProperty)
	if err != nil {
		return nil, 0, wrap("list properties", err)
	}
	return result, total, nil
}

func (s *Store) UpdateProperty(ctx context.Context, p *property.Property) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE properties SET
    name = $2, rera_number = $3, city = $4, area = $5, specification = $6, rate = $7,
    total_plots = $8, description = $9, map_url = $10, updated_at = $11
WHERE id = $1`,
		p.ID, p.Name, p.RERANumber, p.Address.City, p.Address.Area, p.Specification, p.Rate,
		p.TotalPlots, p.Description, p.MapURL, p.UpdatedAt)
	if err != nil {
		return wrap("update property", err)
	}
	if tag.RowsAffected() == 0 {
		return backoffice.ErrPropertyNotFound
	}
	return nil
}

func (s *Store) DeleteProperty(ctx context.Context, propertyID id.PropertyID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, propertyID)
	if err != nil {
		return wrap("delete property", err)
	}
	if tag.RowsAffected() == 0 {
		return backoffice.ErrPropertyNotFound
	}
	return nil
}

// ==================== Employee Store ====================

func (s *Store) CreateEmployee(ctx context.Context, e *employee.Employee) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO employees (`+employeeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		employeeArgs(e)...)
	if err != nil {
		return wrap("create employee", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, employeeID)
	e, err := scanEmployee(row)
	if err != nil {
		if isNoRows(err) {
			return nil, backoffice.ErrEmployeeNotFound
		}
		return nil, wrap("get employee", err)
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context, opts employee.ListOpts) ([]*employee.Employee, int64, error) {
	w := newWhere()
	w.search(opts.Search, "name", "rera_number", "superior_name")

	result, total, err := list(ctx, s, "employees", employeeColumns, w, createdOrder, opts.Params, scanEmployee)
	if err != nil {
		return nil, 0, wrap("list employees", err)
	}
	return result, total, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e *employee.Employee) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE employees SET
    name = $2, aadhar_number = $3, account_number = $4, rera_number = $5, total_sales = $6,
    superior_name = $7, photo_url = $8, ongoing_work = $9, updated_at = $10
WHERE id = $1`,
		e.ID, e.Name, e.NationalID, e.AccountNumber, e.RERANumber, e.TotalSales,
		e.SuperiorName, e.PhotoURL, orEmpty(e.OngoingWork), e.UpdatedAt)
	if err != nil {
		return wrap("update employee", err)
	}
	if tag.RowsAffected() == 0 {
		return backoffice.ErrEmployeeNotFound
	}
	return nil
}

// ==================== Client Store ====================

func (s *Store) GetClient(ctx context.Context, clientID id.ClientID) (*client.Client, error) {
	return s.findClient(ctx, `id = $1`, clientID)
}

func (s *Store) GetClientByNationalID(ctx context.Context, nationalID string) (*client.Client, error) {
	return s.findClient(ctx, `aadhar_number = $1`, nationalID)
}

func (s *Store) findClient(ctx context.Context, cond string, arg any) (*client.Client, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE `+cond, arg)
	c, err := scanClient(row)
	if err != nil {
		if isNoRows(err) {
			return nil, backoffice.ErrClientNotFound
		}
		return nil, wrap("get client", err)
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context, opts client.ListOpts) ([]*client.Client, int64, error) {
	w := newWhere()
	w.search(opts.Search, "name", "phone_number", "aadhar_number")

	result, total, err := list(ctx, s, "clients", clientColumns, w, createdOrder, opts.Params, scanClient)
	if err != nil {
		return nil, 0, wrap("list clients", err)
	}
	return result, total, nil
}

// statusCase derives the client status from the updated remaining balance.
const statusCase = `CASE WHEN pay_remaining + $5 <= 0 THEN 'completed' ELSE 'ongoing' END`

func (s *Store) RecordClientPayment(ctx context.Context, clientID id.ClientID, cash, cheque decimal.Decimal) (*client.Client, error) {
	delta := types.Ledger{Cash: cash, Cheque: cheque, Remaining: cash.Add(cheque).Neg()}
	row := s.pool.QueryRow(ctx, mergeSQL+` RETURNING `+clientColumns, mergeArgs(clientID, delta)...)
	c, err := scanClient(row)
	if err != nil {
		if isNoRows(err) {
			return nil, backoffice.ErrClientNotFound
		}
		return nil, wrap("record payment", err)
	}
	return c, nil
}

const mergeSQL = `
UPDATE clients SET
    pay_cash = pay_cash + $2,
    pay_cheque = pay_cheque + $3,
    pay_total = pay_total + $4,
    pay_remaining = pay_remaining + $5,
    status = ` + statusCase + `,
    updated_at = $6
WHERE id = $1`

func mergeArgs(clientID id.ClientID, l types.Ledger) []any {
	return []any{clientID, l.Cash, l.Cheque, l.Total, l.Remaining, types.Now()}
}

// ==================== Booking Store ====================

func (s *Store) PlaceBooking(ctx context.Context, pl *booking.Placement) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrap("begin place booking", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	b := pl.Booking
	if c := pl.NewClient; c != nil {
		_, err := tx.Exec(ctx,
			`INSERT INTO clients (`+clientColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			clientArgs(c)...)
		if err != nil {
			return wrap("create client", err)
		}
	} else {
		tag, err := tx.Exec(ctx, mergeSQL, mergeArgs(b.ClientID, pl.Merge)...)
		if err != nil {
			return wrap("merge client ledger", err)
		}
		if tag.RowsAffected() == 0 {
			return backoffice.ErrClientNotFound
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		bookingArgs(b)...)
	if err != nil {
		return wrap("create booking", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrap("commit place booking", err)
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID id.BookingID) (*booking.Booking, error) {
	return s.findBooking(ctx, `id = $1`, bookingID)
}

func (s *Store) ActiveBooking(ctx context.Context, propertyID id.PropertyID, plotNumber int) (*booking.Booking, error) {
	return s.findBooking(ctx,
		`property_id = $1 AND plot_number = $2 AND status IN ('pending', 'confirmed')`,
		propertyID, plotNumber)
}

func (s *Store) findBooking(ctx context.Context, cond string, args ...any) (*booking.Booking, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+cond, args...)
	b, err := scanBooking(row)
	if err != nil {
		if isNoRows(err) {
			return nil, backoffice.ErrBookingNotFound
		}
		return nil, wrap("get booking", err)
	}
	return b, nil
}

func (s *Store) ListBookings(ctx context.Context, opts booking.ListOpts) ([]*booking.Booking, int64, error) {
	w := newWhere()
	if opts.Status != "" {
		w.add("status = " + w.arg(string(opts.Status)))
	}

	result, total, err := list(ctx, s, "bookings", bookingColumns, w, "booking_date DESC, id DESC", opts.Params, scanBooking)
	if err != nil {
		return nil, 0, wrap("list bookings", err)
	}
	return result, total, nil
}

func (s *Store) SetBookingStatus(ctx context.Context, bookingID id.BookingID, status booking.Status) (booking.Status, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", wrap("begin set booking status", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var from string
	err = tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, bookingID).Scan(&from)
	if err != nil {
		if isNoRows(err) {
			return "", backoffice.ErrBookingNotFound
		}
		return "", wrap("lock booking", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`,
		bookingID, string(status), types.Now())
	if err != nil {
		return "", wrap("set booking status", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", wrap("commit set booking status", err)
	}
	return booking.Status(from), nil
}

// ==================== User Store ====================

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		userArgs(u)...)
	if err != nil {
		return wrap("create user", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	return s.findUser(ctx, `id = $1`, userID)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findUser(ctx, `email = $1`, email)
}

func (s *Store) findUser(ctx context.Context, cond string, arg any) (*user.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg)
	u, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return nil, backoffice.ErrUserNotFound
		}
		return nil, wrap("get user", err)
	}
	return u, nil
}

// ==================== Helpers ====================

const createdOrder = "created_at ASC, id ASC"

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

func newWhere() *where { return &where{} }

// arg appends v and returns its placeholder.
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) add(cond string) {
	w.conds = append(w.conds, cond)
}

// search adds a case-insensitive literal substring match over columns.
func (w *where) search(text string, columns ...string) {
	if text == "" {
		return
	}
	ph := w.arg(likePattern(text))
	ors := make([]string, len(columns))
	for i, c := range columns {
		ors[i] = c + ` ILIKE ` + ph + ` ESCAPE '\'`
	}
	w.add("(" + strings.Join(ors, " OR ") + ")")
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// likePattern escapes LIKE metacharacters so text matches literally.
func likePattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(text) + "%"
}

// list counts the rows matching w and scans one page of them.
func list[T any](
	ctx context.Context,
	s *Store,
	table, columns string,
	w *where,
	order string,
	p query.Params,
	scan func(rowScanner) (T, error),
) ([]T, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append([]any(nil), w.args...)
	args = append(args, p.Limit, p.Skip())
	sql := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		columns, table, w.String(), order, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// wrap maps unique violations to sentinels and wraps everything else.
func wrap(op string, err error) error {
	if dup := uniqueViolation(err); dup != nil {
		return dup
	}
	return fmt.Errorf("backoffice/postgres: %s: %w", op, err)
}

// uniqueViolation maps SQLSTATE 23505 to the sentinel for the violated
// constraint. It returns nil for any other error.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case conActivePlot:
		return backoffice.ErrPlotBooked
	case conClientAadhar:
		return backoffice.ErrClientExists
	case conPropertyRERA:
		return backoffice.ErrPropertyExists
	case conEmployeeRERA:
		return backoffice.ErrEmployeeExists
	case conUserEmail:
		return backoffice.ErrUserExists
	default:
		return backoffice.ErrAlreadyExists
	}
}

// isNoRows checks if an error wraps pgx.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
