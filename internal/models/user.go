package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the portal-wide access level carried in session claims.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleUser        Role = "USER"
	RoleGatekeeper  Role = "GATEKEEPER"
	RoleProjectLead Role = "PROJECT_LEAD"
	RoleResearcher  Role = "RESEARCHER"
	RoleReviewer    Role = "REVIEWER"
	RoleCustom      Role = "CUSTOM"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGatekeeper, RoleProjectLead, RoleResearcher, RoleReviewer, RoleCustom:
		return true
	}
	return false
}

// User is the identity record. PasswordHash is nil for OAuth-only accounts;
// a user with no hash and no linked account cannot authenticate by any path.
type User struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email           string          `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Name            string          `gorm:"size:255" json:"name"`
	PasswordHash    *string         `gorm:"size:255" json:"-"`
	EmailVerifiedAt *time.Time      `json:"email_verified_at"`
	Role            Role            `gorm:"size:20;default:'USER'" json:"role"`
	Accounts        []LinkedAccount `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// IsOAuth reports whether the user signed in through an external provider.
// Only meaningful when Accounts have been loaded.
func (u *User) IsOAuth() bool {
	return len(u.Accounts) > 0
}
