package backoffice

import "github.com/havelihousing/backoffice/id"

// ID is the identifier type shared by every record.
type ID = id.ID

// Prefix names the record kind encoded in an ID.
type Prefix = id.Prefix
