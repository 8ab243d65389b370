package models

import "github.com/google/uuid"

// Role is the coarse authorization level of a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

var Roles = []Role{RoleAdmin, RoleUser}

// User represents an authenticated back-office user.
type User struct {
	Base
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name     string `gorm:"size:255" json:"name,omitempty"`
	Password string `gorm:"size:255;not null" json:"-"` // bcrypt hash, never exposed in JSON
	Role     Role   `gorm:"size:20;not null;default:USER" json:"role"`
	IsActive bool   `gorm:"not null" json:"isActive"`
	// RefreshTokenHash is the SHA-256 of the only refresh token currently valid.
	// Nil means the user is logged out everywhere.
	RefreshTokenHash *string `gorm:"size:64" json:"-"`

	Clients []Client `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Actions []Action `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// GetUserID implements the Ownable interface: a user owns its own record.
func (u *User) GetUserID() uuid.UUID {
	return u.ID
}
