// Package mongo implements the back-office store on MongoDB.
//
// MongoDB without a replica set has no multi-document transactions, so
// PlaceBooking writes the client change first and undoes it if the booking
// insert is refused. The partial unique index on active plots is what
// refuses it.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

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

// Collection name constants.
const (
	colProperties = "properties"
	colEmployees  = "employees"
	colClients    = "clients"
	colBookings   = "bookings"
	colUsers      = "users"
)

// Unique index names, matched against duplicate-key errors.
const (
	idxPropertyRERA = "properties_rera_unique"
	idxEmployeeRERA = "employees_rera_unique"
	idxClientAadhar = "clients_aadhar_unique"
	idxActivePlot   = "bookings_active_plot_unique"
	idxUserEmail    = "users_email_unique"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New wraps an already connected database. Close disconnects its client.
func New(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db}
}

// Connect dials uri and returns a store over dbName.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	c, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("backoffice/mongo: connect: %w", err)
	}
	if err := c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(ctx)
		return nil, fmt.Errorf("backoffice/mongo: ping: %w", err)
	}
	return New(c.Database(dbName)), nil
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all back-office collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("backoffice/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ==================== Property Store ====================

func (s *Store) CreateProperty(ctx context.Context, p *property.Property) error {
	m, err := toPropertyModel(p)
	if err != nil {
		return err
	}
	_, err = s.col(colProperties).InsertOne(ctx, m)
	if err != nil {
		if dup := duplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("backoffice/mongo: create property: %w", err)
	}
	return nil
}

func (s *Store) GetProperty(ctx context.Context, propertyID id.PropertyID) (*property.Property, error) {
	var m propertyModel
	err := s.col(colProperties).FindOne(ctx, bson.M{"_id": propertyID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, backoffice.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("backoffice/mongo: get property: %w", err)
	}
	return fromPropertyModel(&m)
}

func (s *Store) ListProperties(ctx context.Context, opts property.ListOpts) ([]*property.Property, int64, error) {
	filter := searchFilter(opts.Params, "name", "address.city", "address.area", "specification")

	var models []propertyModel
	total, err := s.page(ctx, colProperties, filter, createdOrder, opts.Params, &models)
	if err != nil {
		return nil, 0, fmt.Errorf("backoffice/mongo: list properties: %w", err)
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
	m, err := toPropertyModel(p)
	if err != nil {
		return err
	}
	res, err := s.col(colProperties).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		if dup := duplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("backoffice/mongo: update property: %w", err)
	}
	if res.MatchedCount == 0 {
		return backoffice.ErrPropertyNotFound
	}
	return nil
}

func (s *Store) DeleteProperty(ctx context.Context, propertyID id.PropertyID) error {
	res, err := s.col(colProperties).DeleteOne(ctx, bson.M{"_id": propertyID.String()})
	if err != nil {
		return fmt.Errorf("backoffice/mongo: delete property: %w", err)
	}
	if res.DeletedCount == 0 {
		return backoffice.ErrPropertyNotFound
	}
	return nil
}

// ==================== Employee Store ====================

func (s *Store) CreateEmployee(ctx context.Context, e *employee.Employee) error {
	_, err := s.col(colEmployees).InsertOne(ctx, toEmployeeModel(e))
	if err != nil {
		if dup := duplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("backoffice/mongo: create employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	var m employeeModel
	err := s.col(colEmployees).FindOne(ctx, bson.M{"_id": employeeID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, backoffice.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("backoffice/mongo: get employee: %w", err)
	}
	return fromEmployeeModel(&m)
}

func (s *Store) ListEmployees(ctx context.Context, opts employee.ListOpts) ([]*employee.Employee, int64, error) {
	filter := searchFilter(opts.Params, "name", "rera_number", "superior_name")

	var models []employeeModel
	total, err := s.page(ctx, colEmployees, filter, createdOrder, opts.Params, &models)
	if err != nil {
		return nil, 0, fmt.Errorf("backoffice/mongo: list employees: %w", err)
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
	m := toEmployeeModel(e)
	res, err := s.col(colEmployees).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		if dup := duplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("backoffice/mongo: update employee: %w", err)
	}
	if res.MatchedCount == 0 {
		return backoffice.ErrEmployeeNotFound
	}
	return nil
}

// ==================== Client Store ====================

func (s *Store) GetClient(ctx context.Context, clientID id.ClientID) (*client.Client, error) {
	return s.findClient(ctx, bson.M{"_id": clientID.String()})
}

func (s *Store) GetClientByNationalID(ctx context.Context, nationalID string) (*client.Client, error) {
	return s.findClient(ctx, bson.M{"aadhar_number": nationalID})
}

func (s *Store) findClient(ctx context.Context, filter bson.M) (*client.Client, error) {
	var m clientModel
	if err := s.col(colClients).FindOne(ctx, filter).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, backoffice.ErrClientNotFound
		}
		return nil, fmt.Errorf("backoffice/mongo: get client: %w", err)
	}
	return fromClientModel(&m)
}

func (s *Store) ListClients(ctx context.Context, opts client.ListOpts) ([]*client.Client, int64, error) {
	filter := searchFilter(opts.Params, "name", "phone_number", "aadhar_number")

	var models []clientModel
	total, err := s.page(ctx, colClients, filter, createdOrder, opts.Params, &models)
	if err != nil {
		return nil, 0, fmt.Errorf("backoffice/mongo: list clients: %w", err)
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
	var enc decEncoder
	update := ledgerPipeline(bson.M{
		"payment.cash":      bson.M{"$add": bson.A{"$payment.cash", enc.dec(cash)}},
		"payment.cheque":    bson.M{"$add": bson.A{"$payment.cheque", enc.dec(cheque)}},
		"payment.remaining": bson.M{"$subtract": bson.A{"$payment.remaining", enc.dec(cash.Add(cheque))}},
	})
	if enc.err != nil {
		return nil, enc.err
	}

	var m clientModel
	err := s.col(colClients).FindOneAndUpdate(ctx,
		bson.M{"_id": clientID.String()},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, backoffice.ErrClientNotFound
		}
		return nil, fmt.Errorf("backoffice/mongo: record payment: %w", err)
	}
	return fromClientModel(&m)
}

// mergeLedger adds l to a client's running ledger in one atomic update.
func (s *Store) mergeLedger(ctx context.Context, clientID string, l types.Ledger) error {
	var enc decEncoder
	update := ledgerPipeline(bson.M{
		"payment.cash":      bson.M{"$add": bson.A{"$payment.cash", enc.dec(l.Cash)}},
		"payment.cheque":    bson.M{"$add": bson.A{"$payment.cheque", enc.dec(l.Cheque)}},
		"payment.total":     bson.M{"$add": bson.A{"$payment.total", enc.dec(l.Total)}},
		"payment.remaining": bson.M{"$add": bson.A{"$payment.remaining", enc.dec(l.Remaining)}},
	})
	if enc.err != nil {
		return enc.err
	}

	res, err := s.col(colClients).UpdateOne(ctx, bson.M{"_id": clientID}, update)
	if err != nil {
		return fmt.Errorf("backoffice/mongo: merge client ledger: %w", err)
	}
	if res.MatchedCount == 0 {
		return backoffice.ErrClientNotFound
	}
	return nil
}

// ledgerPipeline sets the given payment fields, then derives status from
// the new remaining balance.
func ledgerPipeline(set bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: set}},
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$lte": bson.A{"$payment.remaining", 0}},
				string(client.StatusCompleted),
				string(client.StatusOngoing),
			}},
			"updated_at": now(),
		}}},
	}
}

// ==================== Booking Store ====================

func (s *Store) PlaceBooking(ctx context.Context, pl *booking.Placement) error {
	b := pl.Booking

	bm, err := toBookingModel(b)
	if err != nil {
		return err
	}

	if c := pl.NewClient; c != nil {
		cm, err := toClientModel(c)
		if err != nil {
			return err
		}
		if _, err := s.col(colClients).InsertOne(ctx, cm); err != nil {
			if dup := duplicate(err); dup != nil {
				return dup
			}
			return fmt.Errorf("backoffice/mongo: create client: %w", err)
		}
	} else if err := s.mergeLedger(ctx, b.ClientID.String(), pl.Merge); err != nil {
		return err
	}

	_, err = s.col(colBookings).InsertOne(ctx, bm)
	if err == nil {
		return nil
	}

	if uerr := s.undoClientWrite(ctx, pl); uerr != nil {
		err = errors.Join(err, fmt.Errorf("backoffice/mongo: undo client write: %w", uerr))
	}
	if dup := duplicate(err); dup != nil {
		return dup
	}
	return fmt.Errorf("backoffice/mongo: create booking: %w", err)
}

func (s *Store) undoClientWrite(ctx context.Context, pl *booking.Placement) error {
	// The caller's context may be what failed the insert.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if pl.NewClient != nil {
		_, err := s.col(colClients).DeleteOne(ctx, bson.M{"_id": pl.NewClient.ID.String()})
		return err
	}
	return s.mergeLedger(ctx, pl.Booking.ClientID.String(), pl.Merge.Neg())
}

func (s *Store) GetBooking(ctx context.Context, bookingID id.BookingID) (*booking.Booking, error) {
	return s.findBooking(ctx, bson.M{"_id": bookingID.String()})
}

func (s *Store) ActiveBooking(ctx context.Context, propertyID id.PropertyID, plotNumber int) (*booking.Booking, error) {
	return s.findBooking(ctx, bson.M{
		"property_id": propertyID.String(),
		"plot_number": plotNumber,
		"active":      true,
	})
}

func (s *Store) findBooking(ctx context.Context, filter bson.M) (*booking.Booking, error) {
	var m bookingModel
	if err := s.col(colBookings).FindOne(ctx, filter).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, backoffice.ErrBookingNotFound
		}
		return nil, fmt.Errorf("backoffice/mongo: get booking: %w", err)
	}
	return fromBookingModel(&m)
}

func (s *Store) ListBookings(ctx context.Context, opts booking.ListOpts) ([]*booking.Booking, int64, error) {
	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	order := bson.D{{Key: "booking_date", Value: -1}, {Key: "_id", Value: -1}}

	var models []bookingModel
	total, err := s.page(ctx, colBookings, filter, order, opts.Params, &models)
	if err != nil {
		return nil, 0, fmt.Errorf("backoffice/mongo: list bookings: %w", err)
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
	var before bookingModel
	err := s.col(colBookings).FindOneAndUpdate(ctx,
		bson.M{"_id": bookingID.String()},
		bson.M{"$set": bson.M{
			"status":     string(status),
			"active":     status.Active(),
			"updated_at": now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if isNoDocuments(err) {
			return "", backoffice.ErrBookingNotFound
		}
		if dup := duplicate(err); dup != nil {
			return "", dup
		}
		return "", fmt.Errorf("backoffice/mongo: set booking status: %w", err)
	}
	return booking.Status(before.Status), nil
}

// ==================== User Store ====================

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if _, err := s.col(colUsers).InsertOne(ctx, toUserModel(u)); err != nil {
		if dup := duplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("backoffice/mongo: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	return s.findUser(ctx, bson.M{"_id": userID.String()})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*user.User, error) {
	var m userModel
	if err := s.col(colUsers).FindOne(ctx, filter).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, backoffice.ErrUserNotFound
		}
		return nil, fmt.Errorf("backoffice/mongo: get user: %w", err)
	}
	return fromUserModel(&m)
}

// ==================== Helpers ====================

var createdOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// page counts the documents matching filter and decodes one page of them
// into out.
func (s *Store) page(ctx context.Context, col string, filter bson.M, order bson.D, p query.Params, out any) (int64, error) {
	total, err := s.col(col).CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}

	cur, err := s.col(col).Find(ctx, filter,
		options.Find().
			SetSort(order).
			SetSkip(int64(p.Skip())).
			SetLimit(int64(p.Limit)),
	)
	if err != nil {
		return 0, err
	}
	if err := cur.All(ctx, out); err != nil {
		return 0, err
	}
	return total, nil
}

// searchFilter matches the search text as a case-insensitive literal
// substring of any of the fields.
func searchFilter(p query.Params, fields ...string) bson.M {
	if p.Search == "" {
		return bson.M{}
	}
	re := bson.Regex{Pattern: regexp.QuoteMeta(p.Search), Options: "i"}
	or := make(bson.A, len(fields))
	for i, f := range fields {
		or[i] = bson.M{f: re}
	}
	return bson.M{"$or": or}
}

// duplicate maps a duplicate-key error to the sentinel for the index that
// rejected it. It returns nil for any other error.
func duplicate(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, idxActivePlot):
		return backoffice.ErrPlotBooked
	case strings.Contains(msg, idxClientAadhar):
		return backoffice.ErrClientExists
	case strings.Contains(msg, idxPropertyRERA):
		return backoffice.ErrPropertyExists
	case strings.Contains(msg, idxEmployeeRERA):
		return backoffice.ErrEmployeeExists
	case strings.Contains(msg, idxUserEmail):
		return backoffice.ErrUserExists
	default:
		return backoffice.ErrAlreadyExists
	}
}

// now returns the current UTC time.
func now() time.Time {
	return types.Now()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all back-office
// collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colProperties: {
			{
				Keys:    bson.D{{Key: "rera_number", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(idxPropertyRERA),
			},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colEmployees: {
			{
				Keys:    bson.D{{Key: "rera_number", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(idxEmployeeRERA),
			},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colClients: {
			{
				Keys:    bson.D{{Key: "aadhar_number", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(idxClientAadhar),
			},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colBookings: {
			{
				Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "plot_number", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName(idxActivePlot).
					SetPartialFilterExpression(bson.M{"active": true}),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "booking_date", Value: -1}}},
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
		},
		colUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName(idxUserEmail),
			},
		},
	}
}
