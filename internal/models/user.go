package models

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// DefaultRoles returns the role set assigned at account creation.
// Role defaulting lives here rather than at call sites.
func DefaultRoles() []Role {
	return []Role{RoleUser}
}

type User struct {
	ID                        string
	Email                     string
	Name                      string
	PasswordHash              string
	Verified                  bool
	VerificationCode          *string
	VerificationCodeExpiresAt *time.Time
	Roles                     []Role
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Session is one live refresh-token lease, i.e. one logged-in device.
// Token is unique across rows; rotation replaces Token in place and
// keeps the row identity and device metadata.
type Session struct {
	ID        string
	UserID    string
	Token     string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}
