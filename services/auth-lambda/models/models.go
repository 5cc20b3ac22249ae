package models

import "time"

// Administrator account states
const (
	StatusActive  = "ACTIVE"
	StatusBlocked = "BLOCKED"
)

// Attendee is a student account
type Attendee struct {
	ID           int64     `json:"id" db:"attendee_id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Administrator manages events and check-in
type Administrator struct {
	ID               int64     `json:"id" db:"admin_id"`
	Name             string    `json:"name" db:"name"`
	Email            string    `json:"email" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	AdminKeyAttempts int       `json:"adminKeyAttempts" db:"admin_key_attempts"`
	IsBlocked        bool      `json:"isBlocked" db:"is_blocked"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// Status returns ACTIVE or BLOCKED
func (a *Administrator) Status() string {
	if a.IsBlocked {
		return StatusBlocked
	}
	return StatusActive
}

// UserProfile is the public view of either account kind
type UserProfile struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// RegisterRequest represents attendee and CLI administrator sign-up
type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank,min=2,max=100"`
	Email    string `json:"email" validate:"notblank,emailaddr"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"notblank,emailaddr"`
	Password string `json:"password" validate:"required"`
}

// AdminRegisterRequest carries the shared administrator passkey
type AdminRegisterRequest struct {
	Name     string `json:"name" validate:"notblank,min=2,max=100"`
	Email    string `json:"email" validate:"notblank,emailaddr"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	AdminKey string `json:"adminKey" validate:"required"`
}

// AdminLoginRequest represents administrator login
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"notblank,emailaddr"`
	Password string `json:"password" validate:"required"`
	AdminKey string `json:"adminKey" validate:"required"`
}

// KeyStatusResponse reports whether administrator sign-up is enabled
type KeyStatusResponse struct {
	Configured bool `json:"configured"`
}

// UpdateProfileRequest represents PUT /api/auth/profile
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"notblank,min=2,max=100"`
	Email string `json:"email" validate:"notblank,emailaddr"`
}

// ChangePasswordRequest represents PUT /api/auth/change-password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=128"`
}

// AdminSummary is an administrator row as listed by the operator CLI
type AdminSummary struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Status           string    `json:"status"`
	AdminKeyAttempts int       `json:"adminKeyAttempts"`
	CreatedAt        time.Time `json:"createdAt"`
}
