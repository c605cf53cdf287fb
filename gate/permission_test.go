package gate_test

import (
	"testing"

	"github.com/uclergnlts/tav-egitim/gate"
)

func TestPermission_NewPermission(t *testing.T) {
	if perm := gate.NewPermission("attendance", gate.ActionCreate); perm != "attendance:create" {
		t.Errorf("expected 'attendance:create', got '%s'", perm)
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := gate.Permission("report:export").Parse()
	if res != "report" || act != gate.ActionExport {
		t.Errorf("unexpected parse result %q %q", res, act)
	}
	res, act = gate.Permission("invalid").Parse()
	if res != "" || act != "" {
		t.Errorf("expected empty strings, got '%s' and '%s'", res, act)
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		granted   gate.Permission
		requested gate.Permission
		want      bool
	}{
		{"personnel:list", "personnel:list", true},
		{"personnel:list", "personnel:delete", false},
		{"personnel:list", "training:list", false},
		{gate.PermissionSuperAdmin, "import:import", true},
		{"attendance:*", "attendance:delete", true},
		{"attendance:*", "personnel:delete", false},
		{"invalid", "invalid", true},
		{"invalid", "x:y", false},
	}
	for _, tt := range tests {
		if got := tt.granted.Matches(tt.requested); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.granted, tt.requested, got, tt.want)
		}
	}
}
