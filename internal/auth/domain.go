package auth

import "time"

// Account is the credential view of a user used during login.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
