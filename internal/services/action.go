package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/diewo77/go-collect/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxActionTitle is the longest accepted action title, in characters.
const MaxActionTitle = 255

type ActionInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	State       models.ActionState `json:"state"`
	DueDate     *Date              `json:"dueDate"`
	DebtorID    uuid.UUID          `json:"debtorId"`
}

func (in *ActionInput) validate() error {
	v := make(validation.Violations)
	validation.Required("title", in.Title, v)
	validation.MaxLen("title", in.Title, MaxActionTitle, v)
	if in.DebtorID == uuid.Nil {
		v["debtorId"] = "required"
	}
	if in.State != "" {
		validation.OneOf("state", in.State, models.ActionStates, v)
	}
	return invalid(v)
}

type ActionPatch struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	State       *models.ActionState `json:"state"`
	DueDate     *Date               `json:"dueDate"`
	CompletedAt *Date               `json:"completedAt"`
}

func (p *ActionPatch) validate() error {
	v := make(validation.Violations)
	if p.Title != nil {
		validation.Required("title", *p.Title, v)
		validation.MaxLen("title", *p.Title, MaxActionTitle, v)
	}
	if p.State != nil {
		validation.Enum("state", *p.State, models.ActionStates, v)
	}
	return invalid(v)
}

// ActionService manages follow-up tasks on debtors.
type ActionService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewActionService(db *gorm.DB) *ActionService {
	return &ActionService{db: db, now: time.Now}
}

func scopeActions(tx *gorm.DB, scope Scope) *gorm.DB {
	if scope.All {
		return tx
	}
	return tx.Where("actions.user_id = ?", scope.UserID)
}

// Create records an action authored by userID on an existing debtor.
func (s *ActionService) Create(ctx context.Context, userID uuid.UUID, in ActionInput) (*ActionDetail, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var debtor models.Debtor
	if err := db.First(&debtor, "id = ?", in.DebtorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Debtor not found")
		}
		return nil, apperr.From(err, "An unknown error occurred while trying to create the action")
	}
	var author models.User
	if err := db.First(&author, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.From(err, "An unknown error occurred while trying to create the action")
	}

	action := &models.Action{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		State:       models.ActionPending,
		DueDate:     timePtr(in.DueDate),
		DebtorID:    debtor.ID,
		UserID:      author.ID,
	}
	if in.State != "" {
		action.State = in.State
	}
	if action.State == models.ActionDone {
		now := s.now()
		action.CompletedAt = &now
	}
	if err := db.Create(action).Error; err != nil {
		return nil, apperr.From(err, "An unknown error occurred while trying to create the action")
	}
	return &ActionDetail{Action: *action, DebtorInfo: debtorContact(&debtor), Author: userSummary(&author)}, nil
}

// Get loads an action for authorization checks.
func (s *ActionService) Get(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	var action models.Action
	err := s.db.WithContext(ctx).First(&action, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Action not found")
	}
	if err != nil {
		return nil, apperr.From(err, "Internal server error while fetching action")
	}
	return &action, nil
}

func (s *ActionService) FindMany(ctx context.Context, scope Scope) ([]models.Action, error) {
	var actions []models.Action
	err := scopeActions(s.db.WithContext(ctx), scope).Order("created_at DESC").Find(&actions).Error
	if err != nil {
		return nil, apperr.From(err, "Internal server error while fetching actions")
	}
	if len(actions) == 0 {
		return nil, apperr.NotFound("No actions found")
	}
	return actions, nil
}

func (s *ActionService) FindOne(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	return s.Get(ctx, id)
}

// FindOneDetail includes the debtor and the author.
func (s *ActionService) FindOneDetail(ctx context.Context, id uuid.UUID) (*ActionDetail, error) {
	var action models.Action
	err := s.db.WithContext(ctx).Preload("Debtor").Preload("User").First(&action, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Action not found")
	}
	if err != nil {
		return nil, apperr.From(err, "Internal server error while fetching action")
	}
	return &ActionDetail{Action: action, DebtorInfo: debtorContact(action.Debtor), Author: userSummary(action.User)}, nil
}

// Update merges the patch. Moving to DONE stamps CompletedAt unless the
// caller supplied one; leaving DONE clears it.
func (s *ActionService) Update(ctx context.Context, id uuid.UUID, p ActionPatch) (*Ack, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	action, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		action.Title = strings.TrimSpace(*p.Title)
	}
	set(&action.Description, p.Description)
	if p.DueDate != nil {
		action.DueDate = timePtr(p.DueDate)
	}
	if p.State != nil && *p.State != action.State {
		action.State = *p.State
		switch {
		case action.State == models.ActionDone && action.CompletedAt == nil:
			now := s.now()
			action.CompletedAt = &now
		case action.State != models.ActionDone:
			action.CompletedAt = nil
		}
	}
	if p.CompletedAt != nil {
		action.CompletedAt = timePtr(p.CompletedAt)
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(action).Error; err != nil {
		return nil, apperr.From(err, "Failed to update action")
	}
	return &Ack{Message: "Action updated successfully", Data: action}, nil
}

func (s *ActionService) Delete(ctx context.Context, id uuid.UUID) (*Ack, error) {
	action, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Action{}, "id = ?", id).Error; err != nil {
		return nil, apperr.From(err, "Internal server error while deleting action")
	}
	return &Ack{
		Message: fmt.Sprintf("Action 'ID: %s, NAME: %s' deleted successfully", action.ID, action.Title),
		Success: true,
	}, nil
}
