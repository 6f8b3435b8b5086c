package domain

import (
	"errors"
	"time"
)

// User is the core user entity. Email doubles as the login name.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string // optional
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
