package backoffice

import "github.com/havelihousing/backoffice/types"

// Ledger is the payment breakdown kept per client and per booking.
type Ledger = types.Ledger

// Entity carries the created/updated timestamps of every record.
type Entity = types.Entity

var (
	ComputeLedger = types.ComputeLedger
	Rupees        = types.Rupees
)
