// Package id defines the prefixed identifiers used by every back-office
// record.
//
// An ID renders as "prefix_suffix" where the suffix is a UUIDv7 in base32,
// so IDs sort by creation time and are safe to put in URLs. The prefix names
// the record kind; parsing with the wrong prefix fails, which lets callers
// reject a client ID passed where a property ID was expected.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the record kind encoded in an ID.
type Prefix string

const (
	PrefixProperty Prefix = "prop"
	PrefixEmployee Prefix = "emp"
	PrefixClient   Prefix = "cli"
	PrefixBooking  Prefix = "bkg"
	PrefixUser     Prefix = "usr"
)

// ID is a prefix-qualified, sortable identifier. The zero value is Nil.
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	tid   typeid.TypeID
	valid bool
}

// Nil is the zero ID.
var Nil ID

// New generates a fresh ID. It panics on an invalid prefix, which can only
// happen through a programming error.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", prefix, err))
	}
	return ID{tid: tid, valid: true}
}

// Parse accepts any well-formed ID regardless of prefix.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid, valid: true}, nil
}

// ParseWithPrefix parses s and requires the given prefix.
func ParseWithPrefix(s string, want Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := parsed.Prefix(); got != want {
		return Nil, fmt.Errorf("id: %q has prefix %q, want %q", s, got, want)
	}
	return parsed, nil
}

// MustParse is Parse for fixed values in tests and seed data.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

// Aliases document which record kind a field refers to.
type (
	PropertyID = ID
	EmployeeID = ID
	ClientID   = ID
	BookingID  = ID
	UserID     = ID
)

func NewPropertyID() ID { return New(PrefixProperty) }
func NewEmployeeID() ID { return New(PrefixEmployee) }
func NewClientID() ID   { return New(PrefixClient) }
func NewBookingID() ID  { return New(PrefixBooking) }
func NewUserID() ID     { return New(PrefixUser) }

func ParsePropertyID(s string) (ID, error) { return ParseWithPrefix(s, PrefixProperty) }
func ParseEmployeeID(s string) (ID, error) { return ParseWithPrefix(s, PrefixEmployee) }
func ParseClientID(s string) (ID, error)   { return ParseWithPrefix(s, PrefixClient) }
func ParseBookingID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixBooking) }
func ParseUserID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixUser) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the record kind, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

// IsNil reports whether i is the zero ID.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler. Nil marshals to "".
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "" yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer. Nil is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL column
	}
	return i.tid.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T", src)
	}
}
