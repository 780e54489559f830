// Package directory resolves users and the direct-leader relation between them.
package directory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/ohare93/delegate/internal/domain"
)

// Store is the persistence contract for users
type Store interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)
	ListSubordinates(ctx context.Context, leaderID int64) ([]*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	InsertUser(ctx context.Context, user *domain.User) (*domain.User, error)
	SetLeader(ctx context.Context, userID int64, leaderID *int64) (*domain.User, error)
}

// Hasher turns a plaintext password into an opaque credential
type Hasher interface {
	Hash(password string) (string, error)
}

// Directory answers identity questions for the policy and views
type Directory struct {
	store  Store
	hasher Hasher
}

// New creates a Directory over store. hasher may be nil when registration is
// not used.
func New(store Store, hasher Hasher) *Directory {
	return &Directory{store: store, hasher: hasher}
}

// FindByID returns the user with the given id or a NotFound error
func (d *Directory) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.store.GetUser(ctx, id)
}

// FindByLogin returns the user with the given login (case-sensitive)
func (d *Directory) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	return d.store.GetUserByLogin(ctx, login)
}

// IsDirectSubordinate reports whether candidate's stored leader is leaderID.
// Only one hop is considered. An unknown candidate is not a subordinate.
func (d *Directory) IsDirectSubordinate(ctx context.Context, leaderID, candidateID int64) (bool, error) {
	candidate, err := d.store.GetUser(ctx, candidateID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return candidate.IsLedBy(leaderID), nil
}

// SubordinatesOf returns the direct subordinates of leaderID in store order
func (d *Directory) SubordinatesOf(ctx context.Context, leaderID int64) ([]*domain.User, error) {
	return d.store.ListSubordinates(ctx, leaderID)
}

// Register validates and stores a new user. Logins are unique; the leader, if
// given, must exist.
func (d *Directory) Register(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if d.hasher == nil {
		return nil, errors.New("directory has no password hasher")
	}

	login := strings.TrimSpace(in.Login)
	if _, err := d.store.GetUserByLogin(ctx, login); err == nil {
		return nil, domain.Conflict("user with login %q already exists", login)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if in.LeaderID != nil {
		if _, err := d.store.GetUser(ctx, *in.LeaderID); err != nil {
			return nil, err
		}
	}

	hash, err := d.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Patronymic:   strings.TrimSpace(in.Patronymic),
		Login:        login,
		PasswordHash: hash,
		LeaderID:     in.LeaderID,
	}
	return d.store.InsertUser(ctx, user)
}

// SetLeader moves userID under leaderID (nil makes them a root manager).
// The change is rejected if it would make anyone their own transitive leader.
func (d *Directory) SetLeader(ctx context.Context, userID int64, leaderID *int64) (*domain.User, error) {
	if _, err := d.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if leaderID != nil {
		if _, err := d.store.GetUser(ctx, *leaderID); err != nil {
			return nil, err
		}
	}

	users, err := d.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	proposed := make([]*domain.User, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			moved := *u
			moved.LeaderID = leaderID
			u = &moved
		}
		proposed = append(proposed, u)
	}
	if err := DetectLeaderCycle(proposed); err != nil {
		return nil, err
	}

	return d.store.SetLeader(ctx, userID, leaderID)
}

// SortForDisplay orders users by surname, then name, then id
func SortForDisplay(users []*domain.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].Surname != users[j].Surname {
			return users[i].Surname < users[j].Surname
		}
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
}
