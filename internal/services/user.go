package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-collect/auth"
	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/diewo77/go-collect/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Password length bounds. The maximum is in bytes, the bcrypt input limit.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = auth.MaxPasswordBytes
)

type CreateUserInput struct {
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Name     string       `json:"name"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

func (in *CreateUserInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
}

func (in *CreateUserInput) validate() error {
	v := make(validation.Violations)
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.Required("password", in.Password, v)
	if in.Password != "" {
		validation.MinLen("password", in.Password, MinPasswordLength, v)
		validation.MaxBytes("password", in.Password, MaxPasswordBytes, v)
	}
	if in.Role != nil {
		validation.Enum("role", *in.Role, models.Roles, v)
	}
	if !v.Empty() {
		if v["email"] == "required" || v["password"] == "required" {
			return apperr.BadRequest("Email and password are required", v)
		}
	}
	return invalid(v)
}

type UpdateUserInput struct {
	Email    *string      `json:"email"`
	Name     *string      `json:"name"`
	Password *string      `json:"password"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

func (in *UpdateUserInput) validate() error {
	v := make(validation.Violations)
	if in.Email != nil {
		*in.Email = strings.ToLower(strings.TrimSpace(*in.Email))
		validation.Required("email", *in.Email, v)
		validation.Email("email", *in.Email, v)
	}
	if in.Password != nil {
		validation.MinLen("password", *in.Password, MinPasswordLength, v)
		validation.MaxBytes("password", *in.Password, MaxPasswordBytes, v)
	}
	if in.Role != nil {
		validation.Enum("role", *in.Role, models.Roles, v)
	}
	return invalid(v)
}

// UserService manages back-office accounts.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Create hashes the password and stores a new user. Role defaults to USER
// and accounts start active.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*UserSummary, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	user, err := s.insert(ctx, in)
	if err != nil {
		return nil, err
	}
	return userSummary(user), nil
}

func (s *UserService) insert(ctx context.Context, in CreateUserInput) (*models.User, error) {
	db := s.db.WithContext(ctx)
	taken, err := exists(db, &models.User{}, "email = ?", in.Email)
	if err != nil {
		return nil, apperr.From(err, "Failed to create user")
	}
	if taken {
		return nil, apperr.Conflict("User with this email already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Failed to hash password", err)
	}
	user := &models.User{
		Email:    in.Email,
		Name:     in.Name,
		Password: hash,
		Role:     models.RoleUser,
		IsActive: true,
	}
	set(&user.Role, in.Role)
	set(&user.IsActive, in.IsActive)

	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("User with this email already exists")
		}
		return nil, apperr.From(err, "Failed to create user")
	}
	return user, nil
}

// Get loads the user record for authorization checks.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.From(err, "Failed to retrieve user")
	}
	return &user, nil
}

func (s *UserService) FindMany(ctx context.Context) ([]UserListItem, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, apperr.From(err, "Failed to retrieve users")
	}
	if len(users) == 0 {
		return nil, apperr.NotFound("No users found")
	}
	out := make([]UserListItem, len(users))
	for i, u := range users {
		out[i] = UserListItem{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
	}
	return out, nil
}

func (s *UserService) FindOne(ctx context.Context, id uuid.UUID) (*UserView, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return userView(user), nil
}

// Update merges the patch into the user. A new email must not belong to
// another account; a new password is hashed.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*Ack, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	if in.Email != nil && *in.Email != user.Email {
		taken, err := exists(db, &models.User{}, "email = ? AND id <> ?", *in.Email, id)
		if err != nil {
			return nil, apperr.From(err, "Failed to update user")
		}
		if taken {
			return nil, apperr.Conflict("This email address is already associated with an account. Please use a different email address.")
		}
		user.Email = *in.Email
	}
	set(&user.Name, in.Name)
	set(&user.Role, in.Role)
	set(&user.IsActive, in.IsActive)
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Internal("Failed to hash password", err)
		}
		user.Password = hash
		// Existing sessions end with the old password.
		user.RefreshTokenHash = nil
	}

	if err := db.Select("email", "name", "role", "is_active", "password", "refresh_token_hash", "updated_at").Save(user).Error; err != nil {
		return nil, apperr.From(err, "Failed to update user")
	}
	return &Ack{Message: "User updated successfully", Data: userView(user)}, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (*Ack, error) {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return nil, apperr.From(res.Error, "Failed to delete user")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("User not found")
	}
	return &Ack{Message: "User deleted", Success: true}, nil
}

// Actions lists the follow-up actions authored by a user, with their debtor.
func (s *UserService) Actions(ctx context.Context, id uuid.UUID) ([]ActionDetail, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	var actions []models.Action
	err := s.db.WithContext(ctx).
		Preload("Debtor").
		Where("user_id = ?", id).
		Order("created_at DESC").
		Find(&actions).Error
	if err != nil {
		return nil, apperr.From(err, "Error while finding all actions for this user")
	}
	out := make([]ActionDetail, len(actions))
	for i := range actions {
		out[i] = ActionDetail{Action: actions[i], DebtorInfo: debtorContact(actions[i].Debtor)}
	}
	return out, nil
}
