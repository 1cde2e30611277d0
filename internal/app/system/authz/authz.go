// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/auth"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a
// found flag. If no user is present in context or the user ID is malformed,
// it returns "visitor", "", NilObjectID, false, so ok=true always means a
// valid, authenticated user with a usable ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in a signed token should not happen; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// Action is a named capability checked against the role table below,
// replacing role-string comparisons scattered across handlers.
type Action string

const (
	ActionReviewRegistrations Action = "review_registrations"
	ActionDeleteRegistrations Action = "delete_registrations"
	ActionManageUsers         Action = "manage_users"
	ActionInviteUsers         Action = "invite_users"
	ActionCreateEvents        Action = "create_events"
	ActionReviewProposals     Action = "review_proposals"
	ActionSubmitProposals     Action = "submit_proposals"
)

// capabilities maps each action to the roles allowed to perform it.
var capabilities = map[Action][]models.Role{
	ActionReviewRegistrations: {models.RoleAdmin},
	ActionDeleteRegistrations: {models.RoleAdmin},
	ActionManageUsers:         {models.RoleAdmin},
	ActionInviteUsers:         {models.RoleAdmin, models.RoleNodalOfficer},
	ActionCreateEvents:        {models.RoleAdmin, models.RoleNodalOfficer, models.RoleCEO, models.RoleLead, models.RoleCoLead},
	ActionReviewProposals:     {models.RoleAdmin, models.RoleNodalOfficer},
	ActionSubmitProposals:     {models.RoleAdmin, models.RoleNodalOfficer, models.RoleCEO, models.RoleLead, models.RoleCoLead, models.RoleCoordinator, models.RoleMember},
}

// Can reports whether a role may perform the action.
func Can(role string, a Action) bool {
	r, ok := models.ParseRole(role)
	if !ok {
		return false
	}
	for _, allowed := range capabilities[a] {
		if r == allowed {
			return true
		}
	}
	return false
}

// RolesFor returns the roles allowed to perform the action, for use with
// auth.RequireRole route middleware.
func RolesFor(a Action) []string {
	roles := make([]string, 0, len(capabilities[a]))
	for _, r := range capabilities[a] {
		roles = append(roles, string(r))
	}
	return roles
}

// CanRequest reports whether the current request's user may perform the
// action.
func CanRequest(r *http.Request, a Action) bool {
	role, _, _, ok := UserCtx(r)
	return ok && Can(role, a)
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == string(models.RoleAdmin)
}

// IsReviewer reports whether the current request's user may review
// proposals (admin or nodal officer).
func IsReviewer(r *http.Request) bool {
	return CanRequest(r, ActionReviewProposals)
}
