// Package store defines the persistence contract shared by every backend.
package store

import (
	"context"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/user"
)

// Store is the record store behind the engine. Backends translate their
// not-found and unique-key failures into the engine's sentinel errors.
type Store interface {
	property.Store
	employee.Store
	client.Store
	booking.Store
	user.Store

	// Migrate creates collections, tables and indexes. It is idempotent.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
