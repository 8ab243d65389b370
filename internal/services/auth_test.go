package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-collect/auth"
	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/diewo77/go-collect/internal/config"
	"github.com/diewo77/go-collect/internal/logging"
	"github.com/diewo77/go-collect/internal/metrics"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	issuer := auth.NewIssuer(config.JWTConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "go-collect",
	})
	return NewAuthService(db, issuer, logging.Discard(), metrics.New()), db
}

func TestAuthService_RegisterTwiceConflicts(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "Ana@Example.com", Password: "longenough", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)

	_, err = svc.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "longenough"})
	requireKind(t, err, apperr.KindConflict)

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.NotEqual(t, "longenough", stored.Password)
	assert.True(t, auth.CheckPassword(stored.Password, "longenough"))
	assert.True(t, stored.IsActive)
	assert.Equal(t, models.RoleUser, stored.Role)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "longenough"})
	requireKind(t, err, apperr.KindBadRequest)
	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.co", Password: "short"})
	requireKind(t, err, apperr.KindBadRequest)
	_, err = svc.Register(context.Background(), RegisterInput{})
	requireKind(t, err, apperr.KindBadRequest)
}

func TestAuthService_Login(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "bo@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "bo@example.com", Password: "wrong-horse"})
	requireKind(t, err, apperr.KindUnauthorized)
	assert.EqualError(t, err, "Invalid credentials")

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct-horse"})
	requireKind(t, err, apperr.KindUnauthorized)
	assert.EqualError(t, err, "Invalid credentials")

	pair, err := svc.Login(ctx, LoginInput{Email: " BO@example.com ", Password: "correct-horse"})
	require.NoError(t, err)
	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.NotEqual(t, stored.Password, pair.AccessToken)
	assert.True(t, auth.TokenMatches(stored.RefreshTokenHash, pair.RefreshToken))

	require.NoError(t, db.Model(&stored).Update("is_active", false).Error)
	_, err = svc.Login(ctx, LoginInput{Email: "bo@example.com", Password: "correct-horse"})
	requireKind(t, err, apperr.KindUnauthorized)
	assert.EqualError(t, err, "Invalid credentials")
}

func TestAuthService_RefreshRotation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "cy@example.com", Password: "password1"})
	require.NoError(t, err)
	first, err := svc.Login(ctx, LoginInput{Email: "cy@example.com", Password: "password1"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	requireKind(t, err, apperr.KindUnauthorized)
	assert.EqualError(t, err, "Invalid refresh token or token has expired")

	tampered := second.RefreshToken[:len(second.RefreshToken)-3] + "abc"
	_, err = svc.Refresh(ctx, tampered)
	requireKind(t, err, apperr.KindUnauthorized)

	// An access token is not a refresh token.
	_, err = svc.Refresh(ctx, second.AccessToken)
	requireKind(t, err, apperr.KindUnauthorized)

	third, err := svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, third.AccessToken)
}

func TestAuthService_LogoutRevokesRefresh(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "di@example.com", Password: "password1"})
	require.NoError(t, err)
	pair, err := svc.Login(ctx, LoginInput{Email: "di@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, u.ID))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	requireKind(t, err, apperr.KindUnauthorized)

	me, err := svc.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "di@example.com", me.Email)
}

func TestAuthService_RegisterRejectsOverlongPassword(t *testing.T) {
	svc, db := newAuthService(t)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "long@example.com", Password: strings.Repeat("x", 80)})
	requireViolation(t, err, "password", "too_long")

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "edge@example.com", Password: strings.Repeat("x", MaxPasswordBytes)})
	require.NoError(t, err)
}

func TestAuthService_LoginUnknownEmailMatchesBadPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, unknown := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "longenough"})
	_, wrong := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "not-the-one"})
	requireKind(t, unknown, apperr.KindUnauthorized)
	assert.Equal(t, wrong.Error(), unknown.Error())
}
