package client

import (
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/types"
)

type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// Client is a buyer, keyed naturally by NationalID (aadhar number). A
// client is created by their first booking; ProjectID and PlotNumber record
// that first purchase. Payment is the running ledger across all of the
// client's bookings.
type Client struct {
	types.Entity
	ID         id.ClientID   `json:"_id"`
	Name       string        `json:"name"`
	NationalID string        `json:"aadhar_number"`
	Phone      string        `json:"phone_number"`
	ProjectID  id.PropertyID `json:"project_id"`
	PlotNumber int           `json:"plot_number"`
	Payment    types.Ledger  `json:"payment"`
	Status     Status        `json:"status"`
	SaledBy    id.UserID     `json:"saled_by"`
}

// StatusFor derives the client status from a ledger.
func StatusFor(l types.Ledger) Status {
	if l.Settled() {
		return StatusCompleted
	}
	return StatusOngoing
}

// ListOpts filters a client listing. Search matches name, phone number and
// aadhar number.
type ListOpts struct {
	query.Params
}
