package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DebtorStatus tracks whether collection is ongoing for a debtor.
type DebtorStatus string

const (
	DebtorActive   DebtorStatus = "ACTIVE"
	DebtorInactive DebtorStatus = "INACTIVE"
	DebtorDisputed DebtorStatus = "DISPUTED"
	DebtorArchived DebtorStatus = "ARCHIVED"
)

var DebtorStatuses = []DebtorStatus{DebtorActive, DebtorInactive, DebtorDisputed, DebtorArchived}

// Debtor is the party owing money, attached to one client.
type Debtor struct {
	Base
	Reference string                      `gorm:"uniqueIndex;size:100;not null" json:"reference"`
	Name      string                      `gorm:"size:255;not null" json:"name"`
	Emails    datatypes.JSONSlice[string] `gorm:"column:email" json:"email"`
	Phone     string                      `gorm:"size:50" json:"phone,omitempty"`
	Address   string                      `gorm:"size:500" json:"address,omitempty"`
	City      string                      `gorm:"size:100" json:"city,omitempty"`
	Zipcode   string                      `gorm:"size:20" json:"zipcode,omitempty"`
	Country   string                      `gorm:"size:100" json:"country,omitempty"`
	Siret     string                      `gorm:"size:14" json:"siret,omitempty"`
	Type      PartyType                   `gorm:"size:20;not null;default:PROFESSIONAL" json:"type"`
	Status    DebtorStatus                `gorm:"size:20;not null;default:ACTIVE" json:"status"`

	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"clientId"`
	Client   *Client   `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`

	Debts   []Debt   `gorm:"foreignKey:DebtorID;constraint:OnDelete:CASCADE" json:"-"`
	Actions []Action `gorm:"foreignKey:DebtorID;constraint:OnDelete:CASCADE" json:"-"`
}

// GetUserID returns the owner of the debtor's client.
// Client must be loaded; otherwise the debtor has no resolvable owner.
func (d *Debtor) GetUserID() uuid.UUID {
	if d.Client == nil {
		return uuid.Nil
	}
	return d.Client.UserID
}
