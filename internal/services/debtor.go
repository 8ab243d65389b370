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

type DebtorInput struct {
	Reference string              `json:"reference"`
	Name      string              `json:"name"`
	Emails    []string            `json:"email"`
	Phone     string              `json:"phone"`
	Address   string              `json:"address"`
	City      string              `json:"city"`
	Zipcode   string              `json:"zipcode"`
	Country   string              `json:"country"`
	Siret     string              `json:"siret"`
	Type      models.PartyType    `json:"type"`
	Status    models.DebtorStatus `json:"status"`
	ClientID  uuid.UUID           `json:"clientId"`
}

func (in *DebtorInput) validate() error {
	v := make(validation.Violations)
	validation.Required("reference", in.Reference, v)
	validation.Required("name", in.Name, v)
	validation.NonEmptyList("email", in.Emails, v)
	for _, e := range in.Emails {
		validation.Email("email", strings.TrimSpace(e), v)
	}
	if in.ClientID == uuid.Nil {
		v["clientId"] = "required"
	}
	if in.Type != "" {
		validation.OneOf("type", in.Type, models.PartyTypes, v)
	}
	if in.Status != "" {
		validation.OneOf("status", in.Status, models.DebtorStatuses, v)
	}
	switch {
	case v["reference"] == "required":
		return apperr.BadRequest("Reference is required", v)
	case v["name"] == "required":
		return apperr.BadRequest("Name is required", v)
	case v["email"] == "required":
		return apperr.BadRequest("At least one email is required", v)
	}
	return invalid(v)
}

type DebtorPatch struct {
	Reference *string              `json:"reference"`
	Name      *string              `json:"name"`
	Emails    *[]string            `json:"email"`
	Phone     *string              `json:"phone"`
	Address   *string              `json:"address"`
	City      *string              `json:"city"`
	Zipcode   *string              `json:"zipcode"`
	Country   *string              `json:"country"`
	Siret     *string              `json:"siret"`
	Type      *models.PartyType    `json:"type"`
	Status    *models.DebtorStatus `json:"status"`
}

func (p *DebtorPatch) validate() error {
	v := make(validation.Violations)
	if p.Reference != nil {
		validation.Required("reference", *p.Reference, v)
	}
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
	if p.Status != nil {
		validation.Enum("status", *p.Status, models.DebtorStatuses, v)
	}
	return invalid(v)
}

// DebtorService manages the parties owing money to clients.
type DebtorService struct {
	db *gorm.DB
}

func NewDebtorService(db *gorm.DB) *DebtorService {
	return &DebtorService{db: db}
}

func (s *DebtorService) ownedClients(scope Scope) *gorm.DB {
	return s.db.Model(&models.Client{}).Select("id").Where("user_id = ?", scope.UserID)
}

func (s *DebtorService) scoped(tx *gorm.DB, scope Scope) *gorm.DB {
	if scope.All {
		return tx
	}
	return tx.Where("debtors.client_id IN (?)", s.ownedClients(scope))
}

// Create stores a debtor under an existing client.
func (s *DebtorService) Create(ctx context.Context, in DebtorInput) (*models.Debtor, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	ok, err := exists(db, &models.Client{}, "id = ?", in.ClientID)
	if err != nil {
		return nil, apperr.From(err, "Failed to create debtor")
	}
	if !ok {
		return nil, apperr.NotFound("Client not found")
	}
	ref := strings.TrimSpace(in.Reference)
	taken, err := exists(db, &models.Debtor{}, "reference = ?", ref)
	if err != nil {
		return nil, apperr.From(err, "Failed to create debtor")
	}
	if taken {
		return nil, apperr.Conflict("Debtor already exists")
	}

	debtor := &models.Debtor{
		Reference: ref,
		Name:      strings.TrimSpace(in.Name),
		Emails:    datatypes.JSONSlice[string](trimmed(in.Emails)),
		Phone:     in.Phone,
		Address:   in.Address,
		City:      in.City,
		Zipcode:   in.Zipcode,
		Country:   in.Country,
		Siret:     in.Siret,
		Type:      models.PartyProfessional,
		Status:    models.DebtorActive,
		ClientID:  in.ClientID,
	}
	if in.Type != "" {
		debtor.Type = in.Type
	}
	if in.Status != "" {
		debtor.Status = in.Status
	}
	if err := db.Create(debtor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Debtor already exists")
		}
		return nil, apperr.From(err, "Failed to create debtor")
	}
	return debtor, nil
}

// Get loads a debtor with its client, for authorization checks.
func (s *DebtorService) Get(ctx context.Context, id uuid.UUID) (*models.Debtor, error) {
	var debtor models.Debtor
	err := s.db.WithContext(ctx).Preload("Client").First(&debtor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Debtor not found")
	}
	if err != nil {
		return nil, apperr.From(err, "Failed to retrieve debtor")
	}
	return &debtor, nil
}

func (s *DebtorService) FindMany(ctx context.Context, scope Scope) ([]DebtorView, error) {
	var debtors []models.Debtor
	err := s.scoped(s.db.WithContext(ctx), scope).
		Preload("Client").
		Order("name").
		Find(&debtors).Error
	if err != nil {
		return nil, apperr.From(err, "Failed to retrieve debtors")
	}
	if len(debtors) == 0 {
		return nil, apperr.NotFound("No debtors found")
	}
	out := make([]DebtorView, len(debtors))
	for i := range debtors {
		out[i] = debtorView(&debtors[i])
	}
	return out, nil
}

func (s *DebtorService) load(ctx context.Context, id uuid.UUID, withActions bool) (*models.Debtor, error) {
	q := s.db.WithContext(ctx).
		Preload("Client").
		Preload("Debts", func(tx *gorm.DB) *gorm.DB { return tx.Order("due_date") })
	if withActions {
		q = q.Preload("Actions", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at DESC") })
	}
	var debtor models.Debtor
	err := q.First(&debtor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Debtor not found")
	}
	if err != nil {
		return nil, apperr.From(err, "An unknown error occurred while trying to find the debtor")
	}
	return &debtor, nil
}

func (s *DebtorService) FindOne(ctx context.Context, id uuid.UUID) (*DebtorView, error) {
	debtor, err := s.load(ctx, id, false)
	if err != nil {
		return nil, err
	}
	v := debtorView(debtor)
	return &v, nil
}

// FindOneDetail adds the debtor's follow-up actions.
func (s *DebtorService) FindOneDetail(ctx context.Context, id uuid.UUID) (*DebtorDetail, error) {
	debtor, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}
	detail := &DebtorDetail{DebtorView: debtorView(debtor), Actions: make([]ActionRef, 0, len(debtor.Actions))}
	for _, a := range debtor.Actions {
		detail.Actions = append(detail.Actions, ActionRef{ID: a.ID, Title: a.Title, Description: a.Description, State: a.State})
	}
	return detail, nil
}

func (s *DebtorService) Update(ctx context.Context, id uuid.UUID, p DebtorPatch) (*Ack, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	debtor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	if p.Reference != nil {
		ref := strings.TrimSpace(*p.Reference)
		if ref != debtor.Reference {
			taken, err := exists(db, &models.Debtor{}, "reference = ? AND id <> ?", ref, id)
			if err != nil {
				return nil, apperr.From(err, "Failed to update debtor")
			}
			if taken {
				return nil, apperr.Conflict("Debtor already exists")
			}
			debtor.Reference = ref
		}
	}
	if p.Name != nil {
		debtor.Name = strings.TrimSpace(*p.Name)
	}
	if p.Emails != nil {
		debtor.Emails = trimmed(*p.Emails)
	}
	set(&debtor.Phone, p.Phone)
	set(&debtor.Address, p.Address)
	set(&debtor.City, p.City)
	set(&debtor.Zipcode, p.Zipcode)
	set(&debtor.Country, p.Country)
	set(&debtor.Siret, p.Siret)
	set(&debtor.Type, p.Type)
	set(&debtor.Status, p.Status)

	if err := db.Omit("Client", "Debts", "Actions").Save(debtor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Debtor already exists")
		}
		return nil, apperr.From(err, "Failed to update debtor")
	}
	return &Ack{Message: "Debtor updated successfully", Data: debtorView(debtor)}, nil
}

// Delete removes a debtor with its debts and actions.
func (s *DebtorService) Delete(ctx context.Context, id uuid.UUID) (*Ack, error) {
	var debtor models.Debtor
	db := s.db.WithContext(ctx)
	if err := db.Select("id", "reference").First(&debtor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Debtor not found")
		}
		return nil, apperr.From(err, "Failed to delete debtor")
	}
	if err := db.Delete(&models.Debtor{}, "id = ?", id).Error; err != nil {
		return nil, apperr.From(err, "Failed to delete debtor")
	}
	return &Ack{Message: "Debtor '" + debtor.Reference + "' deleted successfully", Success: true}, nil
}
