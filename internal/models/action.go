package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionState is the progress of a follow-up task.
type ActionState string

const (
	ActionPending    ActionState = "PENDING"
	ActionInProgress ActionState = "IN_PROGRESS"
	ActionDone       ActionState = "DONE"
	ActionCancelled  ActionState = "CANCELLED"
)

var ActionStates = []ActionState{ActionPending, ActionInProgress, ActionDone, ActionCancelled}

// Action is a follow-up task (call, letter, reminder) on a debtor.
type Action struct {
	Base
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	State       ActionState `gorm:"size:20;not null;default:PENDING" json:"state"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`

	DebtorID uuid.UUID `gorm:"type:uuid;index;not null" json:"debtorId"`
	Debtor   *Debtor   `gorm:"foreignKey:DebtorID;constraint:OnDelete:CASCADE" json:"-"`

	// UserID is the author of the action.
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`
	User   *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// GetUserID implements the Ownable interface for authorization.
func (a *Action) GetUserID() uuid.UUID {
	return a.UserID
}
