package domain

import "strings"

// User is a member of the organization. LeaderID is nil for a root manager.
type User struct {
	ID           int64  `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Surname      string `json:"surname" yaml:"surname"`
	Patronymic   string `json:"patronymic,omitempty" yaml:"patronymic,omitempty"`
	Login        string `json:"login" yaml:"login"`
	PasswordHash string `json:"-" yaml:"-"`
	LeaderID     *int64 `json:"leader_id,omitempty" yaml:"leader_id,omitempty"`
}

// NewUser is the input for registering a user
type NewUser struct {
	Name       string `json:"name" yaml:"name"`
	Surname    string `json:"surname" yaml:"surname"`
	Patronymic string `json:"patronymic,omitempty" yaml:"patronymic,omitempty"`
	Login      string `json:"login" yaml:"login"`
	Password   string `json:"password" yaml:"password"`
	LeaderID   *int64 `json:"leader_id,omitempty" yaml:"leader_id,omitempty"`
}

// Validate checks the required registration fields
func (n NewUser) Validate() error {
	switch {
	case strings.TrimSpace(n.Login) == "":
		return Invalid("login", "login is required")
	case n.Password == "":
		return Invalid("password", "password is required")
	case strings.TrimSpace(n.Name) == "":
		return Invalid("name", "name is required")
	case strings.TrimSpace(n.Surname) == "":
		return Invalid("surname", "surname is required")
	}
	if n.LeaderID != nil && *n.LeaderID <= 0 {
		return Invalid("leader_id", "leader_id must be positive")
	}
	return nil
}

// IsLedBy reports whether leaderID is this user's direct leader
func (u *User) IsLedBy(leaderID int64) bool {
	return u != nil && u.LeaderID != nil && *u.LeaderID == leaderID
}

// GroupKey is the key used by the responsible-grouped view ("<surname> <name>").
// Two users with the same surname and name share a key.
func (u *User) GroupKey() string {
	return GroupKey(u.Surname, u.Name)
}

// GroupKey joins surname and name the way grouped views key them
func GroupKey(surname, name string) string {
	return surname + " " + name
}

// FullName returns "Surname Name Patronymic" without trailing blanks
func (u *User) FullName() string {
	parts := []string{u.Surname, u.Name}
	if u.Patronymic != "" {
		parts = append(parts, u.Patronymic)
	}
	return strings.Join(parts, " ")
}

// Public returns a copy with the credential cleared
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	if u.LeaderID != nil {
		id := *u.LeaderID
		c.LeaderID = &id
	}
	return &c
}

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 {
	return &v
}
