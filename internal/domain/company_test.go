package domain

import (
	"testing"
)

func TestNewCompany(t *testing.T) {
	c := NewCompany("Acme Valet", "user-1")

	if c.ID == "" {
		t.Error("Expected company ID to be set")
	}
	if len(c.Admins) != 1 || c.Admins[0] != "user-1" {
		t.Errorf("Expected creator as sole admin, got %v", c.Admins)
	}
	if len(c.BasicUsers) != 0 {
		t.Errorf("Expected no basic users, got %v", c.BasicUsers)
	}
	if len(c.TipLevels) != 3 || c.TipLevels[0] != 2 || c.TipLevels[1] != 5 || c.TipLevels[2] != 10 {
		t.Errorf("Expected default tip levels [2 5 10], got %v", c.TipLevels)
	}
	if c.CustomTip {
		t.Error("Expected custom tip disabled by default")
	}
}

func TestCompanyGrant(t *testing.T) {
	tests := []struct {
		name       string
		admins     []string
		basicUsers []string
		userID     string
		role       Role
		wantAdmin  bool
		wantBasic  bool
	}{
		{
			name:       "promote basic user",
			admins:     []string{"u1"},
			basicUsers: []string{"u2"},
			userID:     "u2",
			role:       RoleAdmin,
			wantAdmin:  true,
			wantBasic:  false,
		},
		{
			name:       "demote admin",
			admins:     []string{"u1", "u2"},
			basicUsers: []string{},
			userID:     "u2",
			role:       RoleBasic,
			wantAdmin:  false,
			wantBasic:  true,
		},
		{
			name:       "grant admin to non-member",
			admins:     []string{"u1"},
			basicUsers: []string{},
			userID:     "u3",
			role:       RoleAdmin,
			wantAdmin:  true,
			wantBasic:  false,
		},
		{
			name:       "re-grant held role is a no-op",
			admins:     []string{"u1"},
			basicUsers: []string{},
			userID:     "u1",
			role:       RoleAdmin,
			wantAdmin:  true,
			wantBasic:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Company{Admins: tt.admins, BasicUsers: tt.basicUsers}
			c.Grant(tt.userID, tt.role)

			if got := c.IsAdmin(tt.userID); got != tt.wantAdmin {
				t.Errorf("IsAdmin = %v, want %v", got, tt.wantAdmin)
			}
			if got := contains(c.BasicUsers, tt.userID); got != tt.wantBasic {
				t.Errorf("in basic_users = %v, want %v", got, tt.wantBasic)
			}
			// The user must never occupy both sets.
			if c.IsAdmin(tt.userID) && contains(c.BasicUsers, tt.userID) {
				t.Error("user present in both membership sets")
			}
		})
	}
}

func TestCompanyGrantRoundTrip(t *testing.T) {
	c := &Company{Admins: []string{"u1"}, BasicUsers: []string{"u2"}}

	c.Grant("u2", RoleAdmin)
	c.Grant("u2", RoleBasic)

	if c.IsAdmin("u2") {
		t.Error("Expected u2 demoted out of admins")
	}
	if !contains(c.BasicUsers, "u2") {
		t.Error("Expected u2 back in basic_users")
	}
	if !c.IsMember("u2") {
		t.Error("Expected u2 to remain a member")
	}
}

func TestCompanyRevoke(t *testing.T) {
	c := &Company{Admins: []string{"u1", "u2"}, BasicUsers: []string{"u3"}}

	c.Revoke("u2", "u3")

	if c.IsMember("u2") || c.IsMember("u3") {
		t.Errorf("Expected u2 and u3 removed, admins=%v basic=%v", c.Admins, c.BasicUsers)
	}
	if !c.IsAdmin("u1") {
		t.Error("Expected u1 untouched")
	}
}

func TestCompanyRevokeLastAdmin(t *testing.T) {
	// Removing every admin is allowed; the store carries no guard.
	c := &Company{Admins: []string{"u1"}, BasicUsers: []string{}}

	c.Revoke("u1")

	if len(c.Admins) != 0 {
		t.Errorf("Expected empty admin set, got %v", c.Admins)
	}
}
