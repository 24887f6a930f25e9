package client

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/havelihousing/backoffice/id"
)

type Store interface {
	GetClient(ctx context.Context, clientID id.ClientID) (*Client, error)
	GetClientByNationalID(ctx context.Context, nationalID string) (*Client, error)
	ListClients(ctx context.Context, opts ListOpts) ([]*Client, int64, error)

	// RecordClientPayment adds cash and cheque to the client's ledger in one
	// atomic step and returns the updated client.
	RecordClientPayment(ctx context.Context, clientID id.ClientID, cash, cheque decimal.Decimal) (*Client, error)
}
