package policy

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/diewo77/go-collect/internal/logging"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRoles struct {
	role  models.Role
	calls int
}

func (s *staticRoles) RoleOf(context.Context, uuid.UUID) (models.Role, error) {
	s.calls++
	return s.role, nil
}

// memoryHook answers GET, SET and DEL from a map, so no server is needed.
type memoryHook struct {
	data map[string]string
	ttls map[string]time.Duration
	cmds []string
}

func (h *memoryHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *memoryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *memoryHook) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		h.cmds = append(h.cmds, cmd.Name())
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := h.data[c.Args()[1].(string)]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			key := c.Args()[1].(string)
			h.data[key] = c.Args()[2].(string)
			h.ttls[key] = 0
			if args := c.Args(); len(args) > 4 {
				unit := time.Second
				if args[3] == "px" {
					unit = time.Millisecond
				}
				h.ttls[key] = time.Duration(args[4].(int64)) * unit
			}
			c.SetVal("OK")
		case *redis.IntCmd:
			delete(h.data, c.Args()[1].(string))
			c.SetVal(1)
		}
		return nil
	}
}

func newMemoryRedis(t *testing.T) (*redis.Client, *memoryHook) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr: "memory",
		Dialer: func(context.Context, string, string) (net.Conn, error) {
			return nil, net.ErrClosed
		},
	})
	t.Cleanup(func() { _ = rdb.Close() })
	h := &memoryHook{data: map[string]string{}, ttls: map[string]time.Duration{}}
	rdb.AddHook(h)
	return rdb, h
}

func TestRedisRoleSource_CachesWithTTL(t *testing.T) {
	rdb, h := newMemoryRedis(t)
	inner := &staticRoles{role: models.RoleAdmin}
	src := NewRedisRoleSource(inner, rdb, time.Minute, logging.Discard())
	ctx := context.Background()
	id := uuid.New()

	for i := 0; i < 2; i++ {
		role, err := src.RoleOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, role)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, time.Minute, h.ttls[roleKey(id)])

	src.Invalidate(ctx, id)
	_, err := src.RoleOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestRedisRoleSource_ZeroTTLSkipsRedis(t *testing.T) {
	rdb, h := newMemoryRedis(t)
	inner := &staticRoles{role: models.RoleUser}
	src := NewRedisRoleSource(inner, rdb, 0, logging.Discard())
	ctx := context.Background()
	id := uuid.New()

	for i := 0; i < 2; i++ {
		role, err := src.RoleOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.RoleUser, role)
	}
	assert.Equal(t, 2, inner.calls)
	assert.Empty(t, h.data, "no key may be written without an expiry")
	assert.NotContains(t, h.cmds, "set")
}
