package policy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/diewo77/go-collect/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const roleKeyPrefix = "go-collect:role:"

// RedisRoleSource caches role lookups in Redis so several API instances
// share one view of who is active. Redis failures fall back to the inner source.
// A ttl of zero or less disables the cache, matching gate.CachedResolver.
type RedisRoleSource struct {
	inner RoleSource
	rdb   *redis.Client
	ttl   time.Duration
	log   *slog.Logger
}

func NewRedisRoleSource(inner RoleSource, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisRoleSource {
	return &RedisRoleSource{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func roleKey(userID uuid.UUID) string { return roleKeyPrefix + userID.String() }

func (s *RedisRoleSource) RoleOf(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	if s.ttl <= 0 {
		return s.inner.RoleOf(ctx, userID)
	}
	cached, err := s.rdb.Get(ctx, roleKey(userID)).Result()
	switch {
	case err == nil:
		return models.Role(cached), nil
	case !errors.Is(err, redis.Nil):
		s.log.Warn("role cache read failed", "user_id", userID, "err", err)
		return s.inner.RoleOf(ctx, userID)
	}

	role, err := s.inner.RoleOf(ctx, userID)
	if err != nil || role == "" {
		return role, err
	}
	if err := s.rdb.Set(ctx, roleKey(userID), string(role), s.ttl).Err(); err != nil {
		s.log.Warn("role cache write failed", "user_id", userID, "err", err)
	}
	return role, nil
}

// Invalidate drops the cached role of a user.
func (s *RedisRoleSource) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.rdb.Del(ctx, roleKey(userID)).Err(); err != nil {
		s.log.Warn("role cache invalidate failed", "user_id", userID, "err", err)
	}
}
