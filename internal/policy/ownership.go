package policy

import (
	"context"

	"github.com/diewo77/go-collect/gate"
	"github.com/google/uuid"
)

// Ownable is implemented by models that belong to a user, directly or
// through their parent chain.
type Ownable interface {
	GetUserID() uuid.UUID
}

// OwnershipPolicy allows a user to act only on resources they own.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can denies resources that do not implement Ownable and resources whose
// owner could not be resolved.
func (p *OwnershipPolicy) Can(_ context.Context, userID uuid.UUID, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	owner := ownable.GetUserID()
	return owner != uuid.Nil && owner == userID
}

// AdminBypassPolicy lets admins through and defers to inner for everyone else.
type AdminBypassPolicy struct {
	inner   gate.Policy[uuid.UUID]
	isAdmin func(ctx context.Context, userID uuid.UUID) bool
}

func NewAdminBypassPolicy(inner gate.Policy[uuid.UUID], isAdmin func(ctx context.Context, userID uuid.UUID) bool) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdmin: isAdmin}
}

func (p *AdminBypassPolicy) Can(ctx context.Context, userID uuid.UUID, action gate.Action, resource any) bool {
	if p.isAdmin(ctx, userID) {
		return true
	}
	return p.inner.Can(ctx, userID, action, resource)
}
