package auth

import (
	"context"
	"time"
)

// User is a stored credential record. PasswordHash never leaves this package.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Nom          string
	Prenom       string
	Role         string
	CreatedAt    time.Time
}

// PublicView strips the credential material for responses.
func (u *User) PublicView() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Nom:       u.Nom,
		Prenom:    u.Prenom,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// PublicUser is the caller-visible shape of a user.
type PublicUser struct {
	ID        int64     `json:"id_user"`
	Email     string    `json:"email"`
	Nom       string    `json:"nom"`
	Prenom    string    `json:"prenom"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore persists credential records.
type UserStore interface {
	// Create inserts the user and fills ID and CreatedAt. A duplicate email
	// is reported as ErrEmailTaken.
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
}
