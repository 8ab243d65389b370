package gate

import "strings"

// Action is the verb half of a permission.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Permission is an allowed action on a resource type, written
// "resource:action" (e.g. "debt:update", "client:view").
type Permission string

// NewPermission creates a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return res, Action(act)
}

// Wildcards
const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// All grants every action on one resource type, e.g. All("debtor") is "debtor:*".
func All(resourceType string) Permission {
	return Permission(resourceType + ":" + WildcardAll)
}

// Matches reports whether p grants requested.
// "*:*" matches everything, "debt:*" matches every debt action.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == WildcardAll
}
