package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"github.com/sarithdm/iedc-website-sub000/internal/testutil"
)

func TestCan_CapabilityTable(t *testing.T) {
	tests := []struct {
		role   string
		action authz.Action
		want   bool
	}{
		{"admin", authz.ActionReviewRegistrations, true},
		{"nodal_officer", authz.ActionReviewRegistrations, false},
		{"admin", authz.ActionDeleteRegistrations, true},
		{"nodal_officer", authz.ActionDeleteRegistrations, false},
		{"admin", authz.ActionManageUsers, true},
		{"ceo", authz.ActionManageUsers, false},
		{"admin", authz.ActionInviteUsers, true},
		{"nodal_officer", authz.ActionInviteUsers, true},
		{"lead", authz.ActionInviteUsers, false},
		{"ceo", authz.ActionCreateEvents, true},
		{"lead", authz.ActionCreateEvents, true},
		{"co_lead", authz.ActionCreateEvents, true},
		{"coordinator", authz.ActionCreateEvents, false},
		{"member", authz.ActionCreateEvents, false},
		{"nodal_officer", authz.ActionReviewProposals, true},
		{"ceo", authz.ActionReviewProposals, false},
		{"member", authz.ActionSubmitProposals, true},
		{"coordinator", authz.ActionSubmitProposals, true},
		{"visitor", authz.ActionSubmitProposals, false},
		{"", authz.ActionCreateEvents, false},
		{"superuser", authz.ActionManageUsers, false},
	}
	for _, tt := range tests {
		if got := authz.Can(tt.role, tt.action); got != tt.want {
			t.Errorf("Can(%q, %s) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}

func TestRolesFor(t *testing.T) {
	roles := authz.RolesFor(authz.ActionReviewProposals)
	if len(roles) != 2 {
		t.Fatalf("RolesFor(ReviewProposals) returned %d roles, want 2", len(roles))
	}
	want := map[string]bool{string(models.RoleAdmin): true, string(models.RoleNodalOfficer): true}
	for _, r := range roles {
		if !want[r] {
			t.Errorf("unexpected role %q", r)
		}
	}
}

func TestUserCtx(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	role, _, _, ok := authz.UserCtx(req)
	if ok {
		t.Error("anonymous request reported authenticated")
	}
	if role != "visitor" {
		t.Errorf("anonymous role = %q, want visitor", role)
	}

	u := testutil.AdminUser()
	req = testutil.WithUser(httptest.NewRequest("GET", "/", nil), u)
	role, name, userID, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("authenticated request reported anonymous")
	}
	if role != "admin" {
		t.Errorf("role = %q, want admin", role)
	}
	if name != u.Name {
		t.Errorf("name = %q, want %q", name, u.Name)
	}
	if userID.Hex() != u.ID {
		t.Errorf("userID = %s, want %s", userID.Hex(), u.ID)
	}
}

func TestIsAdminAndIsReviewer(t *testing.T) {
	admin := testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.AdminUser())
	if !authz.IsAdmin(admin) {
		t.Error("admin not recognized")
	}
	if !authz.IsReviewer(admin) {
		t.Error("admin should be a reviewer")
	}

	nodal := testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.NodalOfficerUser())
	if authz.IsAdmin(nodal) {
		t.Error("nodal officer is not an admin")
	}
	if !authz.IsReviewer(nodal) {
		t.Error("nodal officer should be a reviewer")
	}

	member := testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.MemberUser())
	if authz.IsAdmin(member) || authz.IsReviewer(member) {
		t.Error("member should be neither admin nor reviewer")
	}
}
