package property

import (
	"context"

	"github.com/havelihousing/backoffice/id"
)

type Store interface {
	CreateProperty(ctx context.Context, p *Property) error
	GetProperty(ctx context.Context, propertyID id.PropertyID) (*Property, error)
	ListProperties(ctx context.Context, opts ListOpts) ([]*Property, int64, error)
	UpdateProperty(ctx context.Context, p *Property) error
	DeleteProperty(ctx context.Context, propertyID id.PropertyID) error
}
