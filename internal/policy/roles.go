package policy

import (
	"context"
	"errors"

	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource type names used in permissions and policies.
const (
	ResourceUser   = "user"
	ResourceClient = "client"
	ResourceDebtor = "debtor"
	ResourceDebt   = "debt"
	ResourceAction = "action"
	ResourceStats  = "stats"
)

// RoleProfiles maps each role to the permissions it grants.
var RoleProfiles = map[models.Role]gate.Profile{
	models.RoleAdmin: gate.NewStaticProfile(string(models.RoleAdmin), gate.PermissionSuperAdmin),
	models.RoleUser: gate.NewStaticProfile(string(models.RoleUser),
		gate.All(ResourceClient),
		gate.All(ResourceDebtor),
		gate.All(ResourceDebt),
		gate.All(ResourceAction),
		gate.NewPermission(ResourceStats, gate.ActionView),
		gate.NewPermission(ResourceUser, gate.ActionView),
	),
}

// RoleSource looks up the role of an active user. It returns an empty
// role, without error, when the user does not exist or is inactive.
type RoleSource interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (models.Role, error)
}

// DBRoleSource reads roles from the users table.
type DBRoleSource struct {
	DB *gorm.DB
}

func NewDBRoleSource(db *gorm.DB) *DBRoleSource {
	return &DBRoleSource{DB: db}
}

func (s *DBRoleSource) RoleOf(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	var row struct {
		Role     models.Role
		IsActive bool
	}
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Select("role", "is_active").
		Where("id = ?", userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !row.IsActive {
		return "", nil
	}
	return row.Role, nil
}

// RoleResolver turns a RoleSource into a gate.ProfileResolver.
type RoleResolver struct {
	Source RoleSource
}

// Resolve returns nil for unknown or inactive users and for roles without a profile.
func (r *RoleResolver) Resolve(ctx context.Context, userID uuid.UUID) (gate.Profile, error) {
	role, err := r.Source.RoleOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return RoleProfiles[role], nil
}
