package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Client is the agency's customer on whose behalf debts are collected.
// Implements the Ownable interface for ownership-based authorization.
type Client struct {
	Base
	InternalRef string                      `gorm:"uniqueIndex;size:120;not null" json:"internalRef"`
	Name        string                      `gorm:"size:255;not null" json:"name"`
	Emails      datatypes.JSONSlice[string] `gorm:"column:email" json:"email"`
	Phones      datatypes.JSONSlice[string] `gorm:"column:phone" json:"phone,omitempty"`
	Address     string                      `gorm:"size:500" json:"address,omitempty"`
	City        string                      `gorm:"size:100" json:"city,omitempty"`
	Zipcode     string                      `gorm:"size:20" json:"zipcode,omitempty"`
	Country     string                      `gorm:"size:100" json:"country,omitempty"`
	Siret       string                      `gorm:"size:14" json:"siret,omitempty"`
	Type        PartyType                   `gorm:"size:20;not null;default:PROFESSIONAL" json:"type"`
	Notes       datatypes.JSONSlice[string] `json:"notes,omitempty"`

	// UserID is the owner of this client (for multi-tenant isolation)
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	User   *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Debtors []Debtor `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Client) GetUserID() uuid.UUID {
	return c.UserID
}

// ClientRefPrefix starts every generated internal reference.
const ClientRefPrefix = "CLT-FR-"

// InternalRefFor derives a client reference from its name: whitespace runs
// become a single dash and the result is upper-cased. A name with no usable
// characters falls back to a random suffix.
func InternalRefFor(name string) string {
	slug := strings.Join(strings.Fields(name), "-")
	if slug == "" {
		return ClientRefPrefix + uuid.NewString()
	}
	return ClientRefPrefix + strings.ToUpper(slug)
}
