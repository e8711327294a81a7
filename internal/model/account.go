package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleReporter Role = "reporter"
	RoleAdmin    Role = "admin"
)

// Account is a registered user, reporter or admin. Role is fixed by the
// repository that created the record.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	ProfilePic   string    `json:"profilePic"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AccountPatch carries the fields of a partial account update. PasswordHash
// must already be hashed.
type AccountPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	ProfilePic   *string
}

// NewAccount creates an Account with a fresh ID.
func NewAccount(role Role, name, email, passwordHash, profilePic string, createdAt time.Time) Account {
	return Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		ProfilePic:   profilePic,
		CreatedAt:    createdAt,
	}
}

// Apply copies the non-nil fields of p onto a.
func (p AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.PasswordHash != nil {
		a.PasswordHash = *p.PasswordHash
	}
	if p.ProfilePic != nil {
		a.ProfilePic = *p.ProfilePic
	}
}

// Category groups articles by name.
type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"categoryName"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewCategory creates a Category with a fresh ID.
func NewCategory(name string, createdAt time.Time) Category {
	return Category{ID: uuid.New(), Name: name, CreatedAt: createdAt}
}
