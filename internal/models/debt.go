package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DebtState represents the payment state of a debt.
type DebtState string

const (
	DebtPending DebtState = "PENDING"
	DebtPaid    DebtState = "PAID"
)

var DebtStates = []DebtState{DebtPending, DebtPaid}

// Debt is a single invoice being collected. AmountRemaining is derived:
// AmountTTC - AmountPaid after every ledger update.
type Debt struct {
	Base
	InvoiceNumber      string                      `gorm:"uniqueIndex;size:100;not null" json:"invoiceNumber"`
	AmountHT           decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"amountHT"`
	AmountTTC          decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"amountTTC"`
	AmountPaid         decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"amountPaid"`
	AmountRemaining    decimal.Decimal             `gorm:"type:numeric(14,2);not null" json:"amountRemaining"`
	AmountOverdue      decimal.NullDecimal         `gorm:"type:numeric(14,2)" json:"amountOverdue"`
	DueDate            time.Time                   `gorm:"not null" json:"dueDate"`
	State              DebtState                   `gorm:"size:20;not null;default:PENDING;index" json:"state"`
	Notes              datatypes.JSONSlice[string] `json:"notes,omitempty"`
	LastReminderSentAt *time.Time                  `json:"lastReminderSentAt,omitempty"`

	DebtorID uuid.UUID `gorm:"type:uuid;index;not null" json:"debtorId"`
	Debtor   *Debtor   `gorm:"foreignKey:DebtorID;constraint:OnDelete:CASCADE" json:"-"`
}

// GetUserID returns the owner of the debt's client.
// Debtor.Client must be loaded.
func (d *Debt) GetUserID() uuid.UUID {
	if d.Debtor == nil {
		return uuid.Nil
	}
	return d.Debtor.GetUserID()
}

// IsOverdue reports whether an unpaid debt is past its due date at now.
func (d *Debt) IsOverdue(now time.Time) bool {
	return d.State != DebtPaid && now.After(d.DueDate)
}
