package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/diewo77/go-collect/validation"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ClientInput struct {
	Name    string           `json:"name"`
	Emails  []string         `json:"email"`
	Phones  []string         `json:"phone"`
	Address string           `json:"address"`
	City    string           `json:"city"`
	Zipcode string           `json:"zipcode"`
	Country string           `json:"country"`
	Siret   string           `json:"siret"`
	Type    models.PartyType `json:"type"`
	Notes   []string         `json:"notes"`
}

func (in *ClientInput) validate() error {
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	validation.NonEmptyList("email", in.Emails, v)
	for _, e := range in.Emails {
		validation.Email("email", strings.TrimSpace(e), v)
	}
	if in.Type != "" {
		validation.OneOf("type", in.Type, models.PartyTypes, v)
	}
	validation.MaxLen("siret", in.Siret, 14, v)
	switch {
	case v["name"] == "required":
		return apperr.BadRequest("Name is required", v)
	case v["email"] == "required":
		return apperr.BadRequest("At least one email address is required", v)
	}
	return invalid(v)
}

type ClientPatch struct {
	Name    *string           `json:"name"`
	Emails  *[]string         `json:"email"`
	Phones  *[]string         `json:"phone"`
	Address *string           `json:"address"`
	City    *string           `json:"city"`
	Zipcode *string           `json:"zipcode"`
	Country *string           `json:"country"`
	Siret   *string           `json:"siret"`
	Type    *models.PartyType `json:"type"`
	Notes   *[]string         `json:"notes"`
}

func (p *ClientPatch) validate() error {
	v := make(validation.Violations)
	if p.Name != nil {
		validation.Required("name", *p.Name, v)
	}
	if p.Emails != nil {
		validation.NonEmptyList("email", *p.Emails, v)
		for _, e := range *p.Emails {
			validation.Email("email", strings.TrimSpace(e), v)
		}
	}
	if p.Type != nil {
		validation.Enum("type", *p.Type, models.PartyTypes, v)
	}
	if p.Siret != nil {
		validation.MaxLen("siret", *p.Siret, 14, v)
	}
	return invalid(v)
}

// ClientService manages the agency's customers.
type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

func scopeClients(tx *gorm.DB, scope Scope) *gorm.DB {
	if scope.All {
		return tx
	}
	return tx.Where("clients.user_id = ?", scope.UserID)
}

// Create stores a client owned by ownerID. The internal reference is
// derived from the name and must be unique.
func (s *ClientService) Create(ctx context.Context, ownerID uuid.UUID, in ClientInput) (*models.Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	ok, err := exists(db, &models.User{}, "id = ?", ownerID)
	if err != nil {
		return nil, apperr.From(err, "Failed to create client")
	}
	if !ok {
		return nil, apperr.NotFound("User not found")
	}

	ref := models.InternalRefFor(in.Name)
	taken, err := exists(db, &models.Client{}, "internal_ref = ?", ref)
	if err != nil {
		return nil, apperr.From(err, "Failed to create client")
	}
	if taken {
		return nil, apperr.Conflict("Client already exists")
	}

	client := &models.Client{
		InternalRef: ref,
		Name:        strings.TrimSpace(in.Name),
		Emails:      datatypes.JSONSlice[string](trimmed(in.Emails)),
		Phones:      datatypes.JSONSlice[string](trimmed(in.Phones)),
		Address:     in.Address,
		City:        in.City,
		Zipcode:     in.Zipcode,
		Country:     in.Country,
		Siret:       in.Siret,
		Type:        models.PartyProfessional,
		Notes:       datatypes.JSONSlice[string](in.Notes),
		UserID:      ownerID,
	}
	if in.Type != "" {
		client.Type = in.Type
	}
	if err := db.Create(client).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Client already exists")
		}
		return nil, apperr.From(err, "An unknown error occurred while creating the client")
	}
	return client, nil
}

// Get loads a client for authorization checks.
func (s *ClientService) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Client not found")
		}
		return nil, apperr.From(err, "Failed to retrieve client")
	}
	return &client, nil
}

func (s *ClientService) FindMany(ctx context.Context, scope Scope) ([]ClientListItem, error) {
	var clients []models.Client
	err := scopeClients(s.db.WithContext(ctx), scope).
		Preload("User").
		Preload("Debtors", func(tx *gorm.DB) *gorm.DB { return tx.Order("name") }).
		Order("name").
		Find(&clients).Error
	if err != nil {
		return nil, apperr.From(err, "Failed to retrieve clients")
	}
	if len(clients) == 0 {
		return nil, apperr.NotFound("No clients found in the database")
	}
	out := make([]ClientListItem, len(clients))
	for i, c := range clients {
		item := ClientListItem{Client: c, Debtors: make([]DebtorRef, 0, len(c.Debtors))}
		if c.User != nil {
			item.User = &UserRef{ID: c.User.ID, Name: c.User.Name}
		}
		for _, d := range c.Debtors {
			item.Debtors = append(item.Debtors, DebtorRef{ID: d.ID, Reference: d.Reference, Name: d.Name})
		}
		out[i] = item
	}
	return out, nil
}

func (s *ClientService) FindOne(ctx context.Context, id uuid.UUID) (*ClientView, error) {
	var client models.Client
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Debtors", func(tx *gorm.DB) *gorm.DB { return tx.Order("name") }).
		First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Client not found")
	}
	if err != nil {
		return nil, apperr.From(err, "Failed to retrieve client")
	}
	view := &ClientView{Client: client, User: userSummary(client.User), Debtors: make([]DebtorContact, 0, len(client.Debtors))}
	for i := range client.Debtors {
		view.Debtors = append(view.Debtors, *debtorContact(&client.Debtors[i]))
	}
	return view, nil
}

func (s *ClientService) Update(ctx context.Context, id uuid.UUID, p ClientPatch) (*Ack, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		client.Name = strings.TrimSpace(*p.Name)
	}
	if p.Emails != nil {
		client.Emails = trimmed(*p.Emails)
	}
	if p.Phones != nil {
		client.Phones = trimmed(*p.Phones)
	}
	set(&client.Address, p.Address)
	set(&client.City, p.City)
	set(&client.Zipcode, p.Zipcode)
	set(&client.Country, p.Country)
	set(&client.Siret, p.Siret)
	set(&client.Type, p.Type)
	if p.Notes != nil {
		client.Notes = *p.Notes
	}
	if err := s.db.WithContext(ctx).Omit("User", "Debtors").Save(client).Error; err != nil {
		return nil, apperr.From(err, "An unknown error occurred while updating the client")
	}
	return &Ack{Message: "Client updated successfully", Data: client}, nil
}

// Delete removes a client and, through the foreign keys, its debtors with their debts and actions.
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) (*Ack, error) {
	res := s.db.WithContext(ctx).Delete(&models.Client{}, "id = ?", id)
	if res.Error != nil {
		return nil, apperr.From(res.Error, "Error deleting client")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Client with ID: |" + id.String() + "| not found")
	}
	return &Ack{Message: "Client deleted successfully", Success: true}, nil
}
