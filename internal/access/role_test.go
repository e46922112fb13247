package access

import "testing"

func TestRoleOrder(t *testing.T) {
	if !(RoleSuperAdmin.Rank() > RoleAdmin.Rank() && RoleAdmin.Rank() > RoleUser.Rank()) {
		t.Fatalf("rank order broken: user=%d admin=%d super_admin=%d",
			RoleUser.Rank(), RoleAdmin.Rank(), RoleSuperAdmin.Rank())
	}
}

func TestOutranksIrreflexive(t *testing.T) {
	for role := range roleRanks {
		if role.Outranks(role) {
			t.Fatalf("%s outranks itself", role)
		}
	}
}

func TestOutranksTransitive(t *testing.T) {
	roles := []Role{RoleUser, RoleAdmin, RoleSuperAdmin}
	for _, a := range roles {
		for _, b := range roles {
			for _, c := range roles {
				if a.Outranks(b) && b.Outranks(c) && !a.Outranks(c) {
					t.Fatalf("transitivity broken: %s > %s > %s but not %s > %s", a, b, c, a, c)
				}
			}
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"user", "admin", "super_admin"} {
		role, err := ParseRole(raw)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", raw, err)
		}
		if role.String() != raw {
			t.Fatalf("ParseRole(%q) = %q", raw, role)
		}
	}
	for _, raw := range []string{"", "root", "Admin", "superadmin"} {
		if _, err := ParseRole(raw); err == nil {
			t.Fatalf("ParseRole(%q) accepted an unknown role", raw)
		}
	}
}
