package user

import (
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/types"
)

// User is a back-office account. Email is unique.
type User struct {
	types.Entity
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"-"`
}
