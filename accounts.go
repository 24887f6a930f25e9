package backoffice

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/types"
	"github.com/havelihousing/backoffice/user"
)

const (
	defaultBcryptCost = bcrypt.DefaultCost
	minPasswordLength = 8
)

// RegisterUser creates a back-office account.
func (e *Engine) RegisterUser(ctx context.Context, email, name, password string) (*user.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	switch {
	case email == "":
		return nil, Required("email")
	case name == "":
		return nil, Required("name")
	case password == "":
		return nil, Required("password")
	case len(password) < minPasswordLength:
		return nil, ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ValidationError{Field: "email", Message: "email is not a valid address"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("backoffice: hash password: %w", err)
	}

	u := &user.User{
		Entity:       types.NewEntity(),
		ID:           id.NewUserID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := e.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	e.plugins.EmitUserRegistered(ctx, u)
	e.logger.Info("user registered", "user_id", u.ID.String())
	return u, nil
}

// Authenticate checks an email and password. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (e *Engine) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ValidationError{Field: "email", Message: "Email and password are required"}
	}

	u, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.plugins.EmitLoginFailed(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		e.plugins.EmitLoginFailed(ctx, email)
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUser returns a user by ID.
func (e *Engine) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	return e.store.GetUser(ctx, userID)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
