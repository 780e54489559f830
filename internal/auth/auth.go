// Package auth hashes passwords and resolves login credentials to a user id.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ohare93/delegate/internal/domain"
)

// DefaultCost is the bcrypt work factor used for new hashes
const DefaultCost = 10

// BcryptHasher hashes passwords with bcrypt
type BcryptHasher struct {
	Cost int
}

// NewHasher returns a hasher using DefaultCost
func NewHasher() *BcryptHasher {
	return &BcryptHasher{Cost: DefaultCost}
}

// Hash returns the bcrypt hash of password
func (h *BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// UserFinder looks users up by login
type UserFinder interface {
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
}

// Authenticator checks login/password pairs
type Authenticator struct {
	users UserFinder
}

// NewAuthenticator creates an Authenticator over users
func NewAuthenticator(users UserFinder) *Authenticator {
	return &Authenticator{users: users}
}

var errInvalidCredentials = &domain.Error{Kind: domain.ErrUnauthorized, Msg: "invalid credentials"}

// Authenticate returns the user with matching credentials. An unknown
// login and a wrong password produce the same error.
func (a *Authenticator) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	if login == "" || password == "" {
		return nil, errInvalidCredentials
	}

	user, err := a.users.FindByLogin(ctx, login)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}
