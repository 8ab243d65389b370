package gate_test

import (
	"testing"

	"github.com/diewo77/go-collect/gate"
)

func TestPermission_Parse(t *testing.T) {
	res, act := gate.NewPermission("debt", gate.ActionUpdate).Parse()
	if res != "debt" || act != gate.ActionUpdate {
		t.Errorf("Parse() = %q, %q", res, act)
	}
	res, act = gate.Permission("garbage").Parse()
	if res != "" || act != "" {
		t.Errorf("malformed Parse() = %q, %q, want empty", res, act)
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		name      string
		granted   gate.Permission
		requested gate.Permission
		want      bool
	}{
		{"exact", "client:view", "client:view", true},
		{"other action", "client:view", "client:delete", false},
		{"resource wildcard", gate.All("debt"), "debt:delete", true},
		{"wildcard other resource", gate.All("debt"), "debtor:delete", false},
		{"super admin", gate.PermissionSuperAdmin, "user:delete", true},
		{"malformed never matches", "*", "user:view", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.granted.Matches(tt.requested); got != tt.want {
				t.Errorf("%q.Matches(%q) = %v, want %v", tt.granted, tt.requested, got, tt.want)
			}
		})
	}
}
