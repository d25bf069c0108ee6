package model

import "testing"

func TestRoles(t *testing.T) {
	known := []string{RoleUser, RoleAdmin}
	for i, have := range known {
		if !ValidRole(have) {
			t.Errorf("ValidRole(%q) = false", have)
		}
		for j, want := range known {
			if got := RoleAtLeast(have, want); got != (i >= j) {
				t.Errorf("RoleAtLeast(%q, %q) = %v", have, want, got)
			}
		}
	}

	// Retired and unknown roles never pass a check in either position.
	for _, bad := range []string{"", "manager", "Admin"} {
		if ValidRole(bad) {
			t.Errorf("ValidRole(%q) = true", bad)
		}
		if RoleAtLeast(bad, RoleUser) || RoleAtLeast(RoleAdmin, bad) {
			t.Errorf("role %q passed RoleAtLeast", bad)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	short := "1234567"
	if err := ValidatePassword(short); err == nil {
		t.Errorf("ValidatePassword accepted %d characters", len(short))
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("ValidatePassword accepted an empty password")
	}
	if err := ValidatePassword(short + "8"); err != nil {
		t.Errorf("ValidatePassword rejected %d characters: %v", MinPasswordLength, err)
	}
}
