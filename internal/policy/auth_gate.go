package policy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/diewo77/go-collect/auth"
	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/httpx"
	"github.com/diewo77/go-collect/internal/apperr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options tunes NewAuthGate. Redis may be nil.
type Options struct {
	CacheTTL time.Duration
	Redis    *redis.Client
	Logger   *slog.Logger
}

// AuthGate is the central authorization point: role profiles cached
// in-process (and optionally in Redis) plus ownership policies per resource.
type AuthGate struct {
	Gate          *gate.HybridGate[uuid.UUID]
	CacheResolver *gate.CachedResolver[uuid.UUID]
	redisRoles    *RedisRoleSource
}

// NewAuthGate builds the gate and registers admin-bypassable ownership
// policies for every owned resource type.
func NewAuthGate(db *gorm.DB, opts Options) *AuthGate {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	var source RoleSource = NewDBRoleSource(db)
	var redisRoles *RedisRoleSource
	if opts.Redis != nil {
		redisRoles = NewRedisRoleSource(source, opts.Redis, opts.CacheTTL, opts.Logger)
		source = redisRoles
	}

	cached := gate.NewCachedResolver[uuid.UUID](&RoleResolver{Source: source}, opts.CacheTTL)
	ag := &AuthGate{
		Gate:          gate.NewHybridGate[uuid.UUID](cached),
		CacheResolver: cached,
		redisRoles:    redisRoles,
	}

	owned := NewAdminBypassPolicy(NewOwnershipPolicy(), ag.IsAdmin)
	for _, res := range []string{ResourceUser, ResourceClient, ResourceDebtor, ResourceDebt, ResourceAction} {
		ag.Gate.Register(res, owned)
	}
	return ag
}

// Authorize checks that the caller may perform action on resource and
// returns an *apperr.Error describing the denial.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return apperr.Unauthorized("Unauthorized")
	}
	err := ag.Gate.Authorize(ctx, userID, action, resourceType, resource)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gate.ErrUnauthenticated):
		return apperr.Unauthorized("Unauthorized")
	case errors.Is(err, gate.ErrForbidden):
		return apperr.Forbidden("You are not allowed to " + string(action) + " this " + resourceType)
	default:
		return apperr.Internal("Authorization check failed", err)
	}
}

// CanProfile checks only profile permissions (no ownership check).
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, userID, action, resourceType)
}

// IsAdmin reports whether the user's profile grants every permission.
func (ag *AuthGate) IsAdmin(ctx context.Context, userID uuid.UUID) bool {
	profile, err := ag.CacheResolver.Resolve(ctx, userID)
	return err == nil && profile != nil && profile.HasPermission(gate.PermissionSuperAdmin)
}

// VerifyUser is the auth middleware's user check: the user must exist and be active.
func (ag *AuthGate) VerifyUser(ctx context.Context, userID uuid.UUID) bool {
	profile, err := ag.CacheResolver.Resolve(ctx, userID)
	return err == nil && profile != nil
}

// Scope returns the caller's id for list filtering and whether the caller
// is an admin who sees every tenant.
func (ag *AuthGate) Scope(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return userID, ag.IsAdmin(ctx, userID)
}

// InvalidateUser clears cached roles for a user.
// Call this when a user's role or active flag changes, or the user is deleted.
func (ag *AuthGate) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	ag.CacheResolver.Invalidate(userID)
	if ag.redisRoles != nil {
		ag.redisRoles.Invalidate(ctx, userID)
	}
}

// RequirePermission returns middleware that checks profile permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserIDFromContext(r.Context()); !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}
			if !ag.CanProfile(r.Context(), action, resourceType) {
				httpx.JSONError(w, http.StatusForbidden, "Forbidden resource", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only allows users with the "*:*" permission.
// It guards user management.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}
			if !ag.IsAdmin(r.Context(), userID) {
				httpx.JSONError(w, http.StatusForbidden, "Forbidden resource", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
