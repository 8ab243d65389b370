package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Amounts are emitted as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base carries the primary key and timestamps shared by every table.
// IDs are generated client-side so the same code runs on postgres and sqlite.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a random UUID when none was set.
func (b *Base) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// PartyType distinguishes companies from private persons.
type PartyType string

const (
	PartyProfessional PartyType = "PROFESSIONAL"
	PartyPersonal     PartyType = "PERSONAL"
)

var PartyTypes = []PartyType{PartyProfessional, PartyPersonal}

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{&User{}, &Client{}, &Debtor{}, &Debt{}, &Action{}}
}
