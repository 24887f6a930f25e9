package backoffice

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/types"
)

// Sentinel errors. Store backends return these (possibly wrapped) so the
// engine and API can classify failures without knowing the backend.
var (
	// General errors
	ErrNotFound         = errors.New("backoffice: not found")
	ErrAlreadyExists    = errors.New("backoffice: already exists")
	ErrInvalidReference = errors.New("backoffice: invalid reference")
	ErrInvalidStatus    = errors.New("backoffice: invalid status")

	// Record errors
	ErrPropertyNotFound = errors.New("backoffice: property not found")
	ErrPropertyExists   = errors.New("backoffice: property with this RERA number already exists")
	ErrEmployeeNotFound = errors.New("backoffice: employee not found")
	ErrEmployeeExists   = errors.New("backoffice: employee with this RERA number already exists")
	ErrClientNotFound   = errors.New("backoffice: client not found")
	ErrClientExists     = errors.New("backoffice: client with this aadhar number already exists")
	ErrBookingNotFound  = errors.New("backoffice: booking not found")
	ErrPlotBooked       = errors.New("backoffice: plot is already booked")
	ErrUserNotFound     = errors.New("backoffice: user not found")
	ErrUserExists       = errors.New("backoffice: user with this email already exists")

	// Auth errors
	ErrUnauthenticated    = errors.New("backoffice: authentication required")
	ErrInvalidCredentials = errors.New("backoffice: invalid email or password")

	// Store errors
	ErrStoreClosed = errors.New("backoffice: store is closed")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("backoffice: validation failed for %s: %s", e.Field, e.Message)
}

// Required builds the ValidationError for an absent field.
func Required(field string) ValidationError {
	return ValidationError{Field: field, Message: field + " is required"}
}

// checkAmount rejects an amount the stores cannot hold exactly.
func checkAmount(field string, d decimal.Decimal) error {
	if types.ValidAmount(d) {
		return nil
	}
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s must be below %s with at most %d decimal places", field, types.MaxAmount, types.AmountPlaces),
	}
}

// ReferenceError is an identifier that does not parse as the record kind
// it was supplied for. It matches ErrInvalidReference.
type ReferenceError struct {
	Kind string
	Err  error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("backoffice: invalid %s reference: %v", e.Kind, e.Err)
}

func (e *ReferenceError) Unwrap() []error {
	return []error{ErrInvalidReference, e.Err}
}

func invalidRef(kind string, err error) error {
	return &ReferenceError{Kind: kind, Err: err}
}

// IsValidation reports whether err is a request-shape problem.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidStatus)
}

// IsInvalidReference reports whether err comes from a malformed identifier.
func IsInvalidReference(err error) bool {
	return errors.Is(err, ErrInvalidReference)
}

// IsNotFound reports whether err means a referenced record is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPropertyNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsConflict reports whether err is a uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrPlotBooked) ||
		errors.Is(err, ErrPropertyExists) ||
		errors.Is(err, ErrEmployeeExists) ||
		errors.Is(err, ErrClientExists) ||
		errors.Is(err, ErrUserExists)
}

// IsUnauthenticated reports whether err means the caller has no valid
// identity.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrInvalidCredentials)
}
