package tabs

import (
	"testing"

	"github.com/dalemusser/channelhub/internal/domain/models"
)

func TestDashboards_DefaultTabIsConfigured(t *testing.T) {
	for _, name := range Names() {
		d, ok := Lookup(name)
		if !ok {
			t.Fatalf("dashboard %q missing", name)
		}
		if !d.Has(d.DefaultTab) {
			t.Errorf("%s: default tab %q not in tab list", name, d.DefaultTab)
		}
		seen := map[string]bool{}
		for _, tab := range d.Tabs {
			if seen[tab.ID] {
				t.Errorf("%s: duplicate tab %q", name, tab.ID)
			}
			seen[tab.ID] = true
		}
	}
}

func TestForRole(t *testing.T) {
	tests := []struct {
		role string
		want string
		ok   bool
	}{
		{models.RoleSuperAdmin, Admin, true},
		{models.RoleAdmin, Admin, true},
		{models.RoleAgent, Agent, true},
		{models.RoleTeacher, TeacherChannel, true},
		{models.RoleMember, MemberChannel, true},
		{"guest", "", false},
	}
	for _, tt := range tests {
		d, ok := ForRole(tt.role)
		if ok != tt.ok || d.Name != tt.want {
			t.Errorf("ForRole(%q) = (%q, %v), want (%q, %v)", tt.role, d.Name, ok, tt.want, tt.ok)
		}
	}
}
