// internal/app/features/proposals/handler.go
package proposals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/sarithdm/iedc-website-sub000/internal/app/policy/proposalpolicy"
	eventstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/events"
	proposalstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/proposals"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/htmlsanitize"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/httpjson"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/normalize"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/paging"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/timeouts"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for event proposals.
type Handler struct {
	Proposals *proposalstore.Store
	Events    *eventstore.Store
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Proposals: proposalstore.New(db),
		Events:    eventstore.New(db),
		Log:       logger,
	}
}

type proposalRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	TargetAudience  string    `json:"targetAudience,omitempty"`
	ProposedDate    time.Time `json:"proposedDate"`
	EstimatedBudget float64   `json:"estimatedBudget,omitempty"`
	ResourceNeeds   string    `json:"resourceNeeds,omitempty"`
}

func (req *proposalRequest) validate() map[string]string {
	fields := map[string]string{}
	if normalize.Name(req.Title) == "" {
		fields["title"] = "required"
	}
	if req.Description == "" {
		fields["description"] = "required"
	}
	if !models.IsValidEventCategory(req.Category) {
		fields["category"] = "unknown category"
	}
	if req.ProposedDate.IsZero() {
		fields["proposedDate"] = "required"
	}
	if req.EstimatedBudget < 0 {
		fields["estimatedBudget"] = "cannot be negative"
	}
	return fields
}

// HandleCreate handles POST /api/proposals.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w, "authentication required")
		return
	}

	var req proposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	p := models.EventProposal{
		Title:           normalize.Name(req.Title),
		Description:     htmlsanitize.PlainText(req.Description),
		Category:        req.Category,
		TargetAudience:  htmlsanitize.PlainText(req.TargetAudience),
		ProposedDate:    req.ProposedDate.UTC(),
		EstimatedBudget: req.EstimatedBudget,
		ResourceNeeds:   htmlsanitize.PlainText(req.ResourceNeeds),
		ProposedBy:      userID,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Proposals.Create(ctx, p)
	if err != nil {
		h.Log.Error("proposal create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

// HandleList handles GET /api/proposals?status=&page=&limit=. Reviewers see
// every proposal; everyone else sees only their own.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w, "authentication required")
		return
	}

	page := paging.Parse(r)
	filter := proposalstore.ListFilter{Status: query.Get(r, "status")}
	if !proposalpolicy.CanReview(r) {
		filter.ProposedBy = &userID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, total, err := h.Proposals.List(ctx, filter, page.Skip(), page.Limit64())
	if err != nil {
		h.Log.Error("proposal list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"proposals": rows,
		"meta":      paging.NewMeta(page, total),
	})
}

// HandleGet handles GET /api/proposals/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProposal(w, r)
	if !ok {
		return
	}
	if !proposalpolicy.CanView(r, p) {
		httpjson.NotFound(w, "proposal not found")
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}

type proposalUpdateRequest struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Category        *string    `json:"category,omitempty"`
	TargetAudience  *string    `json:"targetAudience,omitempty"`
	ProposedDate    *time.Time `json:"proposedDate,omitempty"`
	EstimatedBudget *float64   `json:"estimatedBudget,omitempty"`
	ResourceNeeds   *string    `json:"resourceNeeds,omitempty"`
}

// HandleUpdate handles PATCH /api/proposals/{id}: the owner editing their
// proposal. Editing a rejected proposal resubmits it as pending.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProposal(w, r)
	if !ok {
		return
	}
	if !proposalpolicy.CanEdit(r, p) {
		httpjson.Forbidden(w, "only the proposer can edit this proposal")
		return
	}

	var req proposalUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}

	fields := map[string]string{}
	if req.Title != nil && normalize.Name(*req.Title) == "" {
		fields["title"] = "cannot be blank"
	}
	if req.Category != nil && !models.IsValidEventCategory(*req.Category) {
		fields["category"] = "unknown category"
	}
	if req.EstimatedBudget != nil && *req.EstimatedBudget < 0 {
		fields["estimatedBudget"] = "cannot be negative"
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	upd := proposalstore.ProposalUpdate{
		Category:        req.Category,
		ProposedDate:    req.ProposedDate,
		EstimatedBudget: req.EstimatedBudget,
	}
	if req.Title != nil {
		t := normalize.Name(*req.Title)
		upd.Title = &t
	}
	if req.Description != nil {
		d := htmlsanitize.PlainText(*req.Description)
		upd.Description = &d
	}
	if req.TargetAudience != nil {
		ta := htmlsanitize.PlainText(*req.TargetAudience)
		upd.TargetAudience = &ta
	}
	if req.ResourceNeeds != nil {
		rn := htmlsanitize.PlainText(*req.ResourceNeeds)
		upd.ResourceNeeds = &rn
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Proposals.OwnerUpdate(ctx, p.ID, upd)
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusOK, updated)
	case err == proposalstore.ErrNotEditable:
		httpjson.DomainError(w, err.Error())
	case err == mongo.ErrNoDocuments:
		httpjson.NotFound(w, "proposal not found")
	default:
		h.Log.Error("proposal update failed", zap.Error(err))
		httpjson.Internal(w)
	}
}

type proposalStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// HandleUpdateStatus handles PATCH /api/proposals/{id}/status: reviewer
// decisions along the pending -> under_review -> approved/rejected machine.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProposal(w, r)
	if !ok {
		return
	}
	_, _, reviewerID, _ := authz.UserCtx(r)

	var req proposalStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Proposals.Transition(ctx, p.ID, normalize.Enum(req.Status), reviewerID, htmlsanitize.PlainText(req.Notes))
	var transitionErr *models.InvalidTransitionError
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusOK, updated)
	case errors.As(err, &transitionErr):
		httpjson.DomainError(w, transitionErr.Error())
	case err == mongo.ErrNoDocuments:
		httpjson.NotFound(w, "proposal not found")
	default:
		h.Log.Error("proposal transition failed", zap.Error(err))
		httpjson.Internal(w)
	}
}

// HandleImplement handles POST /api/proposals/{id}/implement: turns an
// approved proposal into a draft event seeded from its content, and records
// the link on the proposal.
func (h *Handler) HandleImplement(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProposal(w, r)
	if !ok {
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	if p.Status != models.ProposalApproved {
		httpjson.DomainError(w, proposalstore.ErrNotApproved.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	// Seed a draft event from the proposal. The organizer fills in the
	// schedule before publishing; placeholder dates keep the ordering rule
	// satisfied.
	start := p.ProposedDate
	if start.IsZero() {
		start = time.Now().UTC().AddDate(0, 1, 0)
	}
	e := models.Event{
		Title:                p.Title,
		Description:          htmlsanitize.Sanitize(p.Description),
		ShortDescription:     htmlsanitize.PlainText(p.Description),
		Category:             p.Category,
		StartDate:            start,
		EndDate:              start.Add(24 * time.Hour),
		RegistrationDeadline: start.Add(-24 * time.Hour),
		CreatedBy:            userID,
		Coordinators:         []primitive.ObjectID{p.ProposedBy},
	}
	created, err := h.Events.Create(ctx, e)
	if err != nil {
		h.Log.Error("proposal implement: event create failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	updated, err := h.Proposals.Implement(ctx, p.ID, created.ID)
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusOK, map[string]any{
			"proposal": updated,
			"event":    created,
		})
	case err == proposalstore.ErrNotApproved:
		// Lost a race with another reviewer; drop the orphaned draft.
		if _, derr := h.Events.Delete(ctx, created.ID); derr != nil {
			h.Log.Warn("proposal implement: draft cleanup failed", zap.Error(derr))
		}
		httpjson.DomainError(w, err.Error())
	default:
		h.Log.Error("proposal implement failed", zap.Error(err))
		httpjson.Internal(w)
	}
}

// HandleDelete handles DELETE /api/proposals/{id}, allowed only while the
// proposal is pending or rejected.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProposal(w, r)
	if !ok {
		return
	}
	if !proposalpolicy.CanDelete(r, p) {
		httpjson.Forbidden(w, "only the proposer can delete this proposal")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Proposals.Delete(ctx, p.ID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case err == proposalstore.ErrNotDeletable:
		httpjson.DomainError(w, err.Error())
	case err == mongo.ErrNoDocuments:
		httpjson.NotFound(w, "proposal not found")
	default:
		h.Log.Error("proposal delete failed", zap.Error(err))
		httpjson.Internal(w)
	}
}

func (h *Handler) loadProposal(w http.ResponseWriter, r *http.Request) (*models.EventProposal, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w, "proposal not found")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Proposals.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "proposal not found")
			return nil, false
		}
		h.Log.Error("proposal load failed", zap.Error(err))
		httpjson.Internal(w)
		return nil, false
	}
	return p, true
}
