package backoffice

import "github.com/havelihousing/backoffice/id"

// The Parse*Ref helpers turn caller-supplied strings into typed IDs. A
// malformed string or one with another record's prefix yields an error
// matching ErrInvalidReference.

func ParsePropertyRef(s string) (id.PropertyID, error) {
	return parseRef(s, "property", id.PrefixProperty)
}

func ParseEmployeeRef(s string) (id.EmployeeID, error) {
	return parseRef(s, "employee", id.PrefixEmployee)
}

func ParseClientRef(s string) (id.ClientID, error) {
	return parseRef(s, "client", id.PrefixClient)
}

func ParseBookingRef(s string) (id.BookingID, error) {
	return parseRef(s, "booking", id.PrefixBooking)
}

func ParseUserRef(s string) (id.UserID, error) {
	return parseRef(s, "user", id.PrefixUser)
}

func parseRef(s, kind string, prefix id.Prefix) (id.ID, error) {
	v, err := id.ParseWithPrefix(s, prefix)
	if err != nil {
		return id.Nil, invalidRef(kind, err)
	}
	return v, nil
}
