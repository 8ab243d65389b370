package services

import (
	"time"

	"github.com/diewo77/go-collect/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Field allowlists returned by the API. Associations are projected
// explicitly so that no model field leaks by accident.

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email"`
}

type UserRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

type UserListItem struct {
	ID    uuid.UUID   `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	Role  models.Role `json:"role"`
}

type UserView struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name,omitempty"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func userSummary(u *models.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func userView(u *models.User) *UserView {
	return &UserView{
		ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role,
		IsActive: u.IsActive, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

// DebtorContact is the short debtor shape nested in clients and actions.
type DebtorContact struct {
	ID     uuid.UUID                   `json:"id"`
	Name   string                      `json:"name"`
	Emails datatypes.JSONSlice[string] `json:"email"`
}

type DebtorRef struct {
	ID        uuid.UUID `json:"id"`
	Reference string    `json:"reference"`
	Name      string    `json:"name"`
}

type ClientRef struct {
	ID          uuid.UUID `json:"id"`
	InternalRef string    `json:"internalRef"`
	Name        string    `json:"name"`
}

type DebtRef struct {
	ID            uuid.UUID        `json:"id"`
	State         models.DebtState `json:"state"`
	InvoiceNumber string           `json:"invoiceNumber"`
}

type ActionRef struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	State       models.ActionState `json:"state"`
}

// ClientListItem is one row of GET /clients.
type ClientListItem struct {
	models.Client
	User    *UserRef    `json:"user,omitempty"`
	Debtors []DebtorRef `json:"debtors"`
}

// ClientView is GET /clients/{id}.
type ClientView struct {
	models.Client
	User    *UserSummary    `json:"user,omitempty"`
	Debtors []DebtorContact `json:"debtors"`
}

// DebtorView is GET /debtors and GET /debtors/{id}.
type DebtorView struct {
	models.Debtor
	ClientRef *ClientRef `json:"client,omitempty"`
	Debts     []DebtRef  `json:"debts,omitempty"`
}

// DebtorDetail is GET /debtors/{id}/detail.
type DebtorDetail struct {
	DebtorView
	Actions []ActionRef `json:"actions"`
}

// DebtorPublic is the debtor shape nested in debt details.
type DebtorPublic struct {
	ID        uuid.UUID                   `json:"id"`
	Reference string                      `json:"reference"`
	Name      string                      `json:"name"`
	Emails    datatypes.JSONSlice[string] `json:"email"`
	Phone     string                      `json:"phone,omitempty"`
	Address   string                      `json:"address,omitempty"`
	City      string                      `json:"city,omitempty"`
	Zipcode   string                      `json:"zipcode,omitempty"`
	Country   string                      `json:"country,omitempty"`
	Siret     string                      `json:"siret,omitempty"`
	Type      models.PartyType            `json:"type"`
	Status    models.DebtorStatus         `json:"status"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

// DebtView is GET /debts/{id}.
type DebtView struct {
	models.Debt
	DebtorRef *DebtorRef `json:"debtor,omitempty"`
}

// DebtDetail is GET /debts/{id}/detail.
type DebtDetail struct {
	models.Debt
	DebtorInfo *DebtorPublic `json:"debtor,omitempty"`
}

// ActionDetail is GET /actions/{id}/detail and the rows of a user's actions.
type ActionDetail struct {
	models.Action
	DebtorInfo *DebtorContact `json:"debtor,omitempty"`
	Author     *UserSummary   `json:"user,omitempty"`
}

func debtorContact(d *models.Debtor) *DebtorContact {
	if d == nil {
		return nil
	}
	return &DebtorContact{ID: d.ID, Name: d.Name, Emails: d.Emails}
}

func debtorPublic(d *models.Debtor) *DebtorPublic {
	if d == nil {
		return nil
	}
	return &DebtorPublic{
		ID: d.ID, Reference: d.Reference, Name: d.Name, Emails: d.Emails,
		Phone: d.Phone, Address: d.Address, City: d.City, Zipcode: d.Zipcode,
		Country: d.Country, Siret: d.Siret, Type: d.Type, Status: d.Status,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func clientRef(c *models.Client) *ClientRef {
	if c == nil {
		return nil
	}
	return &ClientRef{ID: c.ID, InternalRef: c.InternalRef, Name: c.Name}
}

func debtorView(d *models.Debtor) DebtorView {
	v := DebtorView{Debtor: *d, ClientRef: clientRef(d.Client)}
	for _, debt := range d.Debts {
		v.Debts = append(v.Debts, DebtRef{ID: debt.ID, State: debt.State, InvoiceNumber: debt.InvoiceNumber})
	}
	return v
}
