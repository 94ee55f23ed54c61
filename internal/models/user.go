package models

import "time"

// User represents a registered user account.
type User struct {
	// ID is the store-assigned identifier for the user.
	ID int64

	// Email is the user's email address (unique).
	// Used for login.
	Email string

	// Username is the display name returned alongside tokens.
	Username string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64
}

// NewUser builds a user ready to be persisted. The ID is assigned by the store.
func NewUser(email, username, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
