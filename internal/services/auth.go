package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/diewo77/go-collect/auth"
	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/metrics"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidRefresh     = "Invalid refresh token or token has expired"
)

// Internal reasons for credential failures. They are logged and counted
// but never returned to the caller.
const (
	reasonUserNotFound  = "user_not_found"
	reasonUserInactive  = "user_inactive"
	reasonBadPassword   = "bad_password"
	reasonBadToken      = "bad_refresh_token"
	reasonTokenMismatch = "refresh_token_mismatch"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AuthService authenticates users and manages their token pairs.
type AuthService struct {
	db      *gorm.DB
	issuer  *auth.Issuer
	users   *UserService
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewAuthService wires the service. m may be nil.
func NewAuthService(db *gorm.DB, issuer *auth.Issuer, log *slog.Logger, m *metrics.Metrics) *AuthService {
	return &AuthService{db: db, issuer: issuer, users: NewUserService(db), log: log, metrics: m}
}

func (s *AuthService) fail(ctx context.Context, reason, msg string, attrs ...any) error {
	s.log.InfoContext(ctx, "authentication failed", append([]any{"reason", reason}, attrs...)...)
	s.metrics.AuthFailed(reason)
	return apperr.Unauthorized(msg)
}

// Login checks the credentials and issues a new token pair. The refresh
// token hash replaces any previous one, ending older sessions.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*auth.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apperr.BadRequest("Email and password are required", nil)
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		auth.CheckDecoy(in.Password)
		return nil, s.fail(ctx, reasonUserNotFound, msgInvalidCredentials, "email", email)
	}
	if err != nil {
		return nil, apperr.From(err, "Login failed")
	}
	// Compare first so the timing does not reveal inactive accounts.
	passwordOK := auth.CheckPassword(user.Password, in.Password)
	if !user.IsActive {
		return nil, s.fail(ctx, reasonUserInactive, msgInvalidCredentials, "user_id", user.ID)
	}
	if !passwordOK {
		return nil, s.fail(ctx, reasonBadPassword, msgInvalidCredentials, "user_id", user.ID)
	}

	pair, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("Failed to issue tokens", err)
	}
	hash := auth.HashToken(pair.RefreshToken)
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token_hash", hash).Error; err != nil {
		return nil, apperr.From(err, "Login failed")
	}
	s.log.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &pair, nil
}

// Register creates an active USER account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*UserSummary, error) {
	return s.users.Create(ctx, CreateUserInput{Email: in.Email, Password: in.Password, Name: in.Name})
}

// Refresh exchanges a refresh token for a new pair. The stored hash is
// swapped atomically, so each refresh token works exactly once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperr.BadRequest("Refresh token is required", nil)
	}
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, s.fail(ctx, reasonBadToken, msgInvalidRefresh, "err", err)
	}
	userID, _ := claims.UserID()

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.fail(ctx, reasonUserNotFound, msgInvalidRefresh, "user_id", userID)
	}
	if err != nil {
		return nil, apperr.From(err, "Refresh failed")
	}
	if !user.IsActive {
		return nil, s.fail(ctx, reasonUserInactive, msgInvalidRefresh, "user_id", userID)
	}
	if !auth.TokenMatches(user.RefreshTokenHash, refreshToken) {
		return nil, s.fail(ctx, reasonTokenMismatch, msgInvalidRefresh, "user_id", userID)
	}

	pair, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("Failed to issue tokens", err)
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", user.ID, *user.RefreshTokenHash).
		Update("refresh_token_hash", auth.HashToken(pair.RefreshToken))
	if res.Error != nil {
		return nil, apperr.From(res.Error, "Refresh failed")
	}
	if res.RowsAffected == 0 {
		// Another request rotated the token first.
		return nil, s.fail(ctx, reasonTokenMismatch, msgInvalidRefresh, "user_id", userID)
	}
	return &pair, nil
}

// Logout forgets the stored refresh token.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", nil)
	if res.Error != nil {
		return apperr.From(res.Error, "Logout failed")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*UserView, error) {
	return s.users.FindOne(ctx, userID)
}
