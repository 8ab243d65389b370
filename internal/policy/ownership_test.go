package policy_test

import (
	"context"
	"testing"

	"github.com/diewo77/go-collect/gate"
	"github.com/diewo77/go-collect/internal/models"
	"github.com/diewo77/go-collect/internal/policy"
	"github.com/google/uuid"
)

type notOwnable struct{ ID uuid.UUID }

func TestOwnershipPolicy_NilResource(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	if !p.Can(context.Background(), uuid.New(), gate.ActionList, nil) {
		t.Error("Expected Can to return true for nil resource")
	}
}

func TestOwnershipPolicy_FollowsParentChain(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	client := &models.Client{UserID: owner}
	debtor := &models.Debtor{Client: client}
	debt := &models.Debt{Debtor: debtor}

	for name, res := range map[string]any{"client": client, "debtor": debtor, "debt": debt} {
		if !p.Can(ctx, owner, gate.ActionUpdate, res) {
			t.Errorf("%s: expected owner to have access", name)
		}
		if p.Can(ctx, stranger, gate.ActionDelete, res) {
			t.Errorf("%s: expected non-owner to be denied", name)
		}
	}
}

func TestOwnershipPolicy_DeniesUnresolvedOwner(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	// Debtor loaded without its client: owner is unknown.
	if p.Can(context.Background(), uuid.Nil, gate.ActionView, &models.Debtor{}) {
		t.Error("Expected unresolved owner to be denied even for nil user")
	}
}

func TestOwnershipPolicy_NonOwnableDenied(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	if p.Can(context.Background(), uuid.New(), gate.ActionView, &notOwnable{ID: uuid.New()}) {
		t.Error("Expected non-Ownable resource to be denied")
	}
}

func TestAdminBypassPolicy(t *testing.T) {
	admin, owner, stranger := uuid.New(), uuid.New(), uuid.New()
	isAdmin := func(_ context.Context, id uuid.UUID) bool { return id == admin }
	p := policy.NewAdminBypassPolicy(policy.NewOwnershipPolicy(), isAdmin)
	res := &models.Action{UserID: owner}
	ctx := context.Background()

	if !p.Can(ctx, admin, gate.ActionDelete, res) {
		t.Error("Expected admin to bypass ownership")
	}
	if !p.Can(ctx, owner, gate.ActionDelete, res) {
		t.Error("Expected owner to have access")
	}
	if p.Can(ctx, stranger, gate.ActionDelete, res) {
		t.Error("Expected non-owner to be denied")
	}
}
