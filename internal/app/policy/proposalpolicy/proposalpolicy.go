// Package proposalpolicy provides authorization policies for event
// proposals.
//
// Authorization rules:
//   - Any signed-in member can submit a proposal
//   - Admins and nodal officers review proposals and can see all of them
//   - The proposer can view, edit (while pending or rejected), and delete
//     (while pending or rejected) their own proposals
package proposalpolicy

import (
	"net/http"

	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
)

// CanSubmit reports whether the current user may submit proposals.
func CanSubmit(r *http.Request) bool {
	return authz.CanRequest(r, authz.ActionSubmitProposals)
}

// CanReview reports whether the current user may change a proposal's review
// status or implement it.
func CanReview(r *http.Request) bool {
	return authz.CanRequest(r, authz.ActionReviewProposals)
}

// IsOwner reports whether the current user proposed p.
func IsOwner(r *http.Request, p *models.EventProposal) bool {
	_, _, userID, ok := authz.UserCtx(r)
	return ok && p.ProposedBy == userID
}

// CanView reports whether the current user may read the proposal: reviewers
// see everything, owners see their own.
func CanView(r *http.Request, p *models.EventProposal) bool {
	return CanReview(r) || IsOwner(r, p)
}

// CanEdit reports whether the current user may edit the proposal's content.
// Only the owner edits; the store enforces the pending/rejected guard.
func CanEdit(r *http.Request, p *models.EventProposal) bool {
	return IsOwner(r, p)
}

// CanDelete reports whether the current user may delete the proposal.
func CanDelete(r *http.Request, p *models.EventProposal) bool {
	return IsOwner(r, p) || authz.IsAdmin(r)
}
