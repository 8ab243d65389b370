// Package gate answers whether a subject may act on a resource. A profile,
// resolved per subject, grants "resource:action" permissions. A policy,
// registered per resource type, then rules on the concrete object, which
// is usually an ownership check. Nothing here depends on domain models.
package gate

import "context"

// HybridGate pairs a ProfileResolver with per-resource-type policies.
// U is the subject type, for example a user id; its zero value means
// nobody is signed in.
type HybridGate[U comparable] struct {
	profiles ProfileResolver[U]
	policies map[string]Policy[U]
}

func NewHybridGate[U comparable](profiles ProfileResolver[U]) *HybridGate[U] {
	return &HybridGate[U]{profiles: profiles, policies: map[string]Policy[U]{}}
}

// Register sets the policy consulted for resourceType, replacing any
// earlier one.
func (g *HybridGate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// granted reports whether the subject's profile holds perm.
func (g *HybridGate[U]) granted(ctx context.Context, user U, perm Permission) (bool, error) {
	var nobody U
	if user == nobody {
		return false, ErrUnauthenticated
	}
	profile, err := g.profiles.Resolve(ctx, user)
	if err != nil {
		return false, &ResolveError{Err: err}
	}
	return profile != nil && profile.HasPermission(perm), nil
}

// Authorize checks the profile, then the resource's policy when resource
// is non-nil. It returns ErrUnauthenticated for the zero subject, a
// *ResolveError when the profile cannot be loaded and ErrForbidden on
// denial.
func (g *HybridGate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	ok, err := g.granted(ctx, user, NewPermission(resourceType, action))
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	if resource == nil {
		return nil
	}
	if p, found := g.policies[resourceType]; found && !p.Can(ctx, user, action, resource) {
		return ErrForbidden
	}
	return nil
}

// CanProfile is the route-level check, made before any resource is loaded.
func (g *HybridGate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	ok, err := g.granted(ctx, user, NewPermission(resourceType, action))
	return err == nil && ok
}
