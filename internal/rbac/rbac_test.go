package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleAdmin, ActionManage, true},
		{RoleAdmin, ActionAnnotate, true},
		{RoleAnnotator, ActionRead, true},
		{RoleAnnotator, ActionAnnotate, true},
		{RoleAnnotator, ActionSubmit, true},
		{RoleAnnotator, ActionManage, false},
		{Role("ghost"), ActionRead, false},
	}
	for _, c := range cases {
		if got := Can(c.role, c.action); got != c.want {
			t.Errorf("Can(%q, %q) = %v, want %v", c.role, c.action, got, c.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if Normalize("admin") != RoleAdmin {
		t.Error("admin should survive normalization")
	}
	if Normalize("") != RoleAnnotator {
		t.Error("empty role should default to annotator")
	}
	if Normalize("superuser") != RoleAnnotator {
		t.Error("unknown role should default to annotator")
	}
}
