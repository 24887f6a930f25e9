// Package memory is an in-process store for tests and local development.
// A single mutex serializes writes, which makes every multi-record write
// atomic.
package memory

import (
	"cmp"
	"context"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	backoffice "github.com/havelihousing/backoffice"
	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/store"
	"github.com/havelihousing/backoffice/user"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

type plotKey struct {
	property string
	plot     int
}

type Store struct {
	mu     sync.RWMutex
	closed bool

	properties map[string]*property.Property
	employees  map[string]*employee.Employee
	clients    map[string]*client.Client
	bookings   map[string]*booking.Booking
	users      map[string]*user.User

	// Unique indexes
	activePlots map[plotKey]string
	nationalIDs map[string]string
	emails      map[string]string
}

func New() *Store {
	return &Store{
		properties:  make(map[string]*property.Property),
		employees:   make(map[string]*employee.Employee),
		clients:     make(map[string]*client.Client),
		bookings:    make(map[string]*booking.Booking),
		users:       make(map[string]*user.User),
		activePlots: make(map[plotKey]string),
		nationalIDs: make(map[string]string),
		emails:      make(map[string]string),
	}
}

func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return backoffice.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ==================== Property Store ====================

func (s *Store) CreateProperty(_ context.Context, p *property.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backoffice.ErrStoreClosed
	}

	if _, exists := s.properties[p.ID.String()]; exists {
		return backoffice.ErrAlreadyExists
	}
	if s.reraTaken(p.RERANumber, p.ID) {
		return backoffice.ErrPropertyExists
	}
	cp := *p
	s.properties[p.ID.String()] = &cp
	return nil
}

func (s *Store) reraTaken(rera string, self id.ID) bool {
	for _, p := range s.properties {
		if p.RERANumber == rera && p.ID != self {
			return true
		}
	}
	return false
}

func (s *Store) GetProperty(_ context.Context, propertyID id.PropertyID) (*property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backoffice.ErrStoreClosed
	}

	p, ok := s.properties[propertyID.String()]
	if !ok {
		return nil, backoffice.ErrPropertyNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListProperties(_ context.Context, opts property.ListOpts) ([]*property.Property, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, 0, backoffice.ErrStoreClosed
	}

	match := matcher(opts.Params)
	var all []*property.Property
	for _, p := range s.properties {
		if match(p.Name, p.Address.City, p.Address.Area, p.Specification) {
			cp := *p
			all = append(all, &cp)
		}
	}
	slices.SortFunc(all, func(a, b *property.Property) int {
		return byCreation(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano(), a.ID, b.ID)
	})
	return query.Window(all, opts.Params), int64(len(all)), nil
}

func (s *Store) UpdateProperty(_ context.Context, p *property.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backoffice.ErrStoreClosed
	}

	if _, exists := s.properties[p.ID.String()]; !exists {
		return backoffice.ErrPropertyNotFound
	}
	if s.reraTaken(p.RERANumber, p.ID) {
		return backoffice.ErrPropertyExists
	}
	cp := *p
	s.properties[p.ID.String()] = &cp
	return nil
}

func (s *Store) DeleteProperty(_ context.Context, propertyID id.PropertyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backoffice.ErrStoreClosed
	}

	if _, exists := s.properties[propertyID.String()]; !exists {
		return backoffice.ErrPropertyNotFound
	}
	delete(s.properties, propertyID.String())
	return nil
}

// ==================== Employee Store ====================

func (s *Store) CreateEmployee(_ context.Context, e *employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backoffice.ErrStoreClosed
	}

	if _, exists := s.employees[e.ID.String()]; exists {
		return backoffice.ErrAlreadyExists
	}
	if s.employeeReraTaken(e.RERANumber, e.ID) {
		return backoffice.ErrEmployeeExists
	}
	s.employees[e.ID.String()] = copyEmployee(e)
	return nil
}

func (s *Store) employeeReraTaken(rera string, self id.ID) bool {
	for _, e := range s.employees {
		if e.RERANumber == rera && e.ID != self {
			return true
		}
	}
	return false
}

func copyEmployee(e *employee.Employee) *employee.Employee {
	cp := *e
	cp.OngoingWork = slices.Clone(e.OngoingWork)
	return &cp
}

func (s *Store) GetEmployee(_ context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backoffice.ErrStoreClosed
	}

	e, ok := s.employees[employeeID.String()]
	if !ok {
		return nil, backoffice.ErrEmployeeNotFound
	}
	return copyEmployee(e), nil
}

func (s *Store) ListEmployees(_ context.Context, opts employee.ListOpts) ([]*employee.Employee, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, 0, backoffice.ErrStoreClosed
	}

	match := matcher(opts.Params)
	var all []*employee.Employee
	for _, e := range s.employees {
		if match(e.Name, e.RERANumber, e.SuperiorName) {
			all = append(all, copyEmployee(e))
		}
	}
	slices.SortFunc(all, func(a, b *employee.Employee) int {
		return byCreation(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano(), a.ID, b.ID)
	})
	return query.Window(all, opts.Params), int64(len(all)), nil
}

func (s *Store) UpdateEmployee(_ context.Context, e *employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backoffice.ErrStoreClosed
	}

	if _, exists := s.employees[e.ID.String()]; !exists {
		return backoffice.ErrEmployeeNotFound
	}
	if s.employeeReraTaken(e.RERANumber, e.ID) {
		return backoffice.ErrEmployeeExists
	}
	s.employees[e.ID.String()] = copyEmployee(e)
	return nil
}

// ==================== Client Store ====================

func (s *Store) GetClient(_ context.Context, clientID id.ClientID) (*client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backoffice.ErrStoreClosed
	}

	c, ok := s.clients[clientID.String()]
	if !ok {
		return nil, backoffice.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) GetClientByNationalID(_ context.Context, nationalID string) (*client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backoffice.ErrStoreClosed
	}

	key, ok := s.nationalIDs[nationalID]
	if !ok {
		return nil, backoffice.ErrClientNotFound
	}
	cp := *s.clients[key]
	return &cp, nil
}

func (s *Store) ListClients(_ context.Context, opts client.ListOpts) ([]*client.Client, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, 0, backoffice.ErrStoreClosed
	}

	match := matcher(opts.Params)
	var all []*client.Client
	for _, c := range s.clients {
		if match(c.Name, c.Phone, c.NationalID) {
			cp := *c
			all = append(all, &cp)
		}
	}
	slices.SortFunc(all, func(a, b *client.Client) int {
		return byCreation(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano(), a.ID, b.ID)
	})
	return query.Window(all, opts.Params), int64(len(all)), nil
}

func (s *Store) RecordClientPayment(_ context.Context, clientID id.ClientID, cash, cheque decimal.Decimal) (*client.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, backoffice.ErrStoreClosed
	}

	c, ok := s.clients[clientID.String()]
	if !ok {
		return nil, backoffice.ErrClientNotFound
	}
	c.Payment = c.Payment.Pay(cash, cheque)
	c.Status = client.StatusFor(c.Payment)
	c.Touch()

	cp := *c
	return &cp, nil
}

// ==================== Booking Store ====================

func (s *Store) PlaceBooking(_ context.Context, pl *booking.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backoffice.ErrStoreClosed
	}

	b := pl.Booking
	key := plotKey{b.PropertyID.String(), b.PlotNumber}
	if b.Status.Active() {
		if _, held := s.activePlots[key]; held {
			return backoffice.ErrPlotBooked
		}
	}

	if c := pl.NewClient; c != nil {
		if _, taken := s.nationalIDs[c.NationalID]; taken {
			return backoffice.ErrClientExists
		}
		cp := *c
		s.clients[c.ID.String()] = &cp
		s.nationalIDs[c.NationalID] = c.ID.String()
	} else {
		c, ok := s.clients[b.ClientID.String()]
		if !ok {
			return backoffice.ErrClientNotFound
		}
		c.Payment = c.Payment.Add(pl.Merge)
		c.Status = client.StatusFor(c.Payment)
		c.Touch()
	}

	cp := *b
	s.bookings[b.ID.String()] = &cp
	if b.Status.Active() {
		s.activePlots[key] = b.ID.String()
	}
	return nil
}

func (s *Store) GetBooking(_ context.Context, bookingID id.BookingID) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backoffice.ErrStoreClosed
	}

	b, ok := s.bookings[bookingID.String()]
	if !ok {
		return nil, backoffice.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) ActiveBooking(_ context.Context, propertyID id.PropertyID, plotNumber int) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backoffice.ErrStoreClosed
	}

	bid, ok := s.activePlots[plotKey{propertyID.String(), plotNumber}]
	if !ok {
		return nil, backoffice.ErrBookingNotFound
	}
	cp := *s.bookings[bid]
	return &cp, nil
}

func (s *Store) ListBookings(_ context.Context, opts booking.ListOpts) ([]*booking.Booking, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, 0, backoffice.ErrStoreClosed
	}

	var all []*booking.Booking
	for _, b := range s.bookings {
		if opts.Status == "" || b.Status == opts.Status {
			cp := *b
			all = append(all, &cp)
		}
	}
	slices.SortFunc(all, func(a, b *booking.Booking) int {
		// Newest first.
		return byCreation(b.BookingDate.UnixNano(), a.BookingDate.UnixNano(), b.ID, a.ID)
	})
	return query.Window(all, opts.Params), int64(len(all)), nil
}

func (s *Store) SetBookingStatus(_ context.Context, bookingID id.BookingID, status booking.Status) (booking.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", backoffice.ErrStoreClosed
	}

	b, ok := s.bookings[bookingID.String()]
	if !ok {
		return "", backoffice.ErrBookingNotFound
	}
	from := b.Status
	key := plotKey{b.PropertyID.String(), b.PlotNumber}

	switch {
	case status.Active() && !from.Active():
		if _, held := s.activePlots[key]; held {
			return "", backoffice.ErrPlotBooked
		}
		s.activePlots[key] = b.ID.String()
	case !status.Active() && from.Active():
		delete(s.activePlots, key)
	}

	b.Status = status
	b.Touch()
	return from, nil
}

// ==================== User Store ====================

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backoffice.ErrStoreClosed
	}

	if _, exists := s.users[u.ID.String()]; exists {
		return backoffice.ErrAlreadyExists
	}
	if _, taken := s.emails[u.Email]; taken {
		return backoffice.ErrUserExists
	}
	cp := *u
	s.users[u.ID.String()] = &cp
	s.emails[u.Email] = u.ID.String()
	return nil
}

func (s *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backoffice.ErrStoreClosed
	}

	u, ok := s.users[userID.String()]
	if !ok {
		return nil, backoffice.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, backoffice.ErrStoreClosed
	}

	key, ok := s.emails[email]
	if !ok {
		return nil, backoffice.ErrUserNotFound
	}
	cp := *s.users[key]
	return &cp, nil
}

// ==================== Helpers ====================

// matcher returns a predicate reporting whether any field contains the
// search text, ignoring case. With no search every record matches.
func matcher(p query.Params) func(fields ...string) bool {
	pattern := p.SearchPattern()
	if pattern == "" {
		return func(...string) bool { return true }
	}
	re := regexp.MustCompile(pattern)
	return func(fields ...string) bool {
		return slices.ContainsFunc(fields, re.MatchString)
	}
}

func byCreation(a, b int64, aID, bID id.ID) int {
	if c := cmp.Compare(a, b); c != 0 {
		return c
	}
	return strings.Compare(aID.String(), bID.String())
}
