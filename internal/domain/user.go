package domain

import (
	"time"
)

// User represents a registered user in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Photo        string    `json:"photo,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Principal returns the identity a token issued for u carries.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}
