// Package eventpolicy provides authorization policies for event management.
//
// Authorization rules:
//   - Admins and nodal officers can manage any event
//   - The creator and listed coordinators can edit an event and upload media
//   - Only the creator (or an admin/nodal officer) can delete an event
//   - Anyone may view published events; drafts are visible to managers only
package eventpolicy

import (
	"net/http"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
)

// CanCreate reports whether the current user may create events.
func CanCreate(r *http.Request) bool {
	return authz.CanRequest(r, authz.ActionCreateEvents)
}

// CanManage reports whether the current user may edit the event, change its
// status, or upload media for it.
func CanManage(r *http.Request, e *models.Event) bool {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role == string(models.RoleAdmin) || role == string(models.RoleNodalOfficer) {
		return true
	}
	return e.CanManage(userID)
}

// CanDelete reports whether the current user may delete the event.
// Coordinators are intentionally excluded.
func CanDelete(r *http.Request, e *models.Event) bool {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role == string(models.RoleAdmin) || role == string(models.RoleNodalOfficer) {
		return true
	}
	return e.CreatedBy == userID
}

// CanView reports whether the current user may see the event. Published,
// completed, and cancelled events are public; drafts require management
// access.
func CanView(r *http.Request, e *models.Event) bool {
	if e.Status != models.EventDraft {
		return true
	}
	return CanManage(r, e)
}

// CanViewRegistrants reports whether the current user may read the
// registrant list, which is never public.
func CanViewRegistrants(r *http.Request, e *models.Event) bool {
	return CanManage(r, e)
}
