package model

import (
	"regexp"
	"time"
)

// Role is the closed set of account roles. Keeping it typed makes the
// role-gate membership check a set lookup over known values instead of a
// free-form string compare.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleReceptionist:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)
)

func ValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// MinPasswordLength applies to the plaintext before hashing.
const MinPasswordLength = 6

// User is the persisted account record. PasswordHash never leaves the
// repository/service layer; API responses use PublicUser.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	Department   *string
	PhoneNumber  *string
	ProfileImage *string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public returns the API-safe view of the account.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.Role,
		IsActive:     u.IsActive,
		Department:   u.Department,
		PhoneNumber:  u.PhoneNumber,
		ProfileImage: u.ProfileImage,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

type PublicUser struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	Department   *string    `json:"department,omitempty"`
	PhoneNumber  *string    `json:"phone_number,omitempty"`
	ProfileImage *string    `json:"profile_image,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Identity is the resolved caller attached to the request context by the
// session middleware after the token has been verified and the account
// re-fetched from the store.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
