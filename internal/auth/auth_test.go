package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ohare93/delegate/internal/domain"
)

type finderFunc func(ctx context.Context, login string) (*domain.User, error)

func (f finderFunc) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	return f(ctx, login)
}

func TestHasherUsesCost(t *testing.T) {
	hash, err := NewHasher().Hash("secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != DefaultCost {
		t.Errorf("cost = %d, want %d", cost, DefaultCost)
	}
}

func TestAuthenticate(t *testing.T) {
	hasher := &BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := hasher.Hash("secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	alice := &domain.User{ID: 7, Login: "alice", PasswordHash: hash}
	storeDown := errors.New("store down")

	users := finderFunc(func(_ context.Context, login string) (*domain.User, error) {
		switch login {
		case "alice":
			return alice, nil
		case "broken":
			return nil, storeDown
		default:
			return nil, domain.NotFound("user", login)
		}
	})
	a := NewAuthenticator(users)

	tests := []struct {
		name     string
		login    string
		password string
		wantID   int64
		wantErr  error
	}{
		{"valid", "alice", "secret", 7, nil},
		{"wrong password", "alice", "nope", 0, domain.ErrUnauthorized},
		{"unknown login", "bob", "secret", 0, domain.ErrUnauthorized},
		{"empty password", "alice", "", 0, domain.ErrUnauthorized},
		{"store failure passes through", "broken", "x", 0, storeDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := a.Authenticate(context.Background(), tt.login, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if user.ID != tt.wantID {
				t.Errorf("Authenticate() id = %d, want %d", user.ID, tt.wantID)
			}
		})
	}
}
