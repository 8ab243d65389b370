package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/diewo77/go-collect/auth"
	"github.com/diewo77/go-collect/internal/models"
	"gorm.io/gorm"
)

// EnsureAdmin creates the bootstrap ADMIN account when it does not exist yet.
// An existing account with that email is promoted and re-activated but its
// password is left alone. Safe to call on every start.
func EnsureAdmin(ctx context.Context, conn *gorm.DB, email, password string, log *slog.Logger) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("admin email and password are required")
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, fmt.Errorf("admin password: %w", auth.ErrPasswordTooLong)
	}

	var user models.User
	err := conn.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if user.Role == models.RoleAdmin && user.IsActive {
			return &user, nil
		}
		if err := conn.WithContext(ctx).Model(&user).Updates(map[string]any{
			"role":      models.RoleAdmin,
			"is_active": true,
		}).Error; err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		log.Info("promoted existing user to admin", "email", email)
		return &user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	user = models.User{
		Email:    email,
		Name:     "Administrator",
		Password: hash,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := conn.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	log.Info("admin user created", "email", email, "id", user.ID)
	return &user, nil
}
