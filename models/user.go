// Package models defines the data structures used throughout the application.
package models

import (
	"time"
)

// UserStatus represents whether a directory account is enabled
type UserStatus string

// User status constants
const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// User is an account in the admin user directory
type User struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Role      Role       `json:"role" db:"role"`
	Status    UserStatus `json:"status" db:"status"`
	LastLogin *time.Time `json:"last_login,omitempty" db:"last_login"`
	Joined    time.Time  `json:"joined" db:"joined"`
}
