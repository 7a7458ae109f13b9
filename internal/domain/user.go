package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered storefront account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Contact      string    `json:"contact" db:"contact"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// RefreshToken is a long-lived token used to mint new access tokens
type RefreshToken struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	Revoked   bool      `db:"revoked"`
}

// Identity is the authenticated account behind a request.
// A zero UserID means the caller is anonymous.
type Identity struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

// Authenticated reports whether the identity belongs to a signed-in account
func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil
}
