// Package models defines the data structures that map to database tables
// and the core types shared across the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a staff account's permission level in the admin API. Editors
// manage content; admins additionally manage accounts and redirects.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// User is a staff account. The password hash and TOTP secret never
// serialize; they exist only between the store and the auth handlers.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	TOTPSecret   *string   `json:"-"`
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Needs2FASetup reports whether the account still has to enroll a second
// factor. Every account must before it can use the admin API.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}
