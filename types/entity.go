// Package types holds the value types shared by every record: timestamps,
// money and the client payment ledger.
package types

import "time"

// Entity carries the audit timestamps embedded in every stored record.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity stamps both timestamps with the current UTC time.
func NewEntity() Entity {
	now := Now()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Touch moves UpdatedAt to now.
func (e *Entity) Touch() {
	e.UpdatedAt = Now()
}

// Now returns the current time in UTC truncated to microseconds, the
// precision every backend can round-trip.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
