// internal/app/features/events/handler.go
package events

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/sarithdm/iedc-website-sub000/internal/app/policy/eventpolicy"
	eventstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/events"
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

// Handler is the feature-level handler for events.
type Handler struct {
	Events  *eventstore.Store
	Storage storage.Store
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, store storage.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Events:  eventstore.New(db),
		Storage: store,
		Log:     logger,
	}
}

type eventRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	ShortDescription string `json:"shortDescription"`
	Category         string `json:"category"`

	StartDate            time.Time `json:"startDate"`
	EndDate              time.Time `json:"endDate"`
	RegistrationDeadline time.Time `json:"registrationDeadline"`

	Location        string  `json:"location"`
	MaxParticipants int     `json:"maxParticipants"`
	Fee             float64 `json:"fee"`
	Featured        bool    `json:"featured"`

	Coordinators             []string                `json:"coordinators,omitempty"`
	CustomRegistrationFields []models.CustomFieldDef `json:"customRegistrationFields,omitempty"`
}

func (req *eventRequest) validate() map[string]string {
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
	if req.StartDate.IsZero() {
		fields["startDate"] = "required"
	}
	if req.EndDate.IsZero() {
		fields["endDate"] = "required"
	}
	if req.RegistrationDeadline.IsZero() {
		fields["registrationDeadline"] = "required"
	}
	if req.MaxParticipants < 0 {
		fields["maxParticipants"] = "cannot be negative"
	}
	if req.Fee < 0 {
		fields["fee"] = "cannot be negative"
	}
	seen := map[string]bool{}
	for _, def := range req.CustomRegistrationFields {
		if err := def.ValidateDef(); err != nil {
			fields["customRegistrationFields"] = err.Error()
			break
		}
		if seen[def.ID] {
			fields["customRegistrationFields"] = "duplicate field id: " + def.ID
			break
		}
		seen[def.ID] = true
	}
	return fields
}

func parseCoordinators(hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, hx := range hexes {
		id, err := primitive.ObjectIDFromHex(hx)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// HandleCreate handles POST /api/events. New events start in draft.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w, "authentication required")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}
	fields := req.validate()
	coordinators, err := parseCoordinators(req.Coordinators)
	if err != nil {
		fields["coordinators"] = "contains an invalid user id"
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	e := models.Event{
		Title:                    normalize.Name(req.Title),
		Description:              htmlsanitize.Sanitize(req.Description),
		ShortDescription:         htmlsanitize.PlainText(req.ShortDescription),
		Category:                 normalize.Enum(req.Category),
		StartDate:                req.StartDate.UTC(),
		EndDate:                  req.EndDate.UTC(),
		RegistrationDeadline:     req.RegistrationDeadline.UTC(),
		Location:                 req.Location,
		MaxParticipants:          req.MaxParticipants,
		Fee:                      req.Fee,
		Featured:                 req.Featured,
		CreatedBy:                userID,
		Coordinators:             coordinators,
		CustomRegistrationFields: req.CustomRegistrationFields,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Events.Create(ctx, e)
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusCreated, created)
	case err == eventstore.ErrBadDates:
		httpjson.ValidationError(w, map[string]string{"dates": err.Error()})
	default:
		h.Log.Error("event create failed", zap.Error(err))
		httpjson.Internal(w)
	}
}

// HandleList handles GET /api/events with optional filters:
// ?category=&status=&featured=&upcoming=&past=&mine=&q=&page=&limit=.
// Anonymous callers see published events only.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)
	filter := eventstore.ListFilter{
		Category: query.Get(r, "category"),
		Status:   query.Get(r, "status"),
		Upcoming: query.Get(r, "upcoming") == "true",
		Past:     query.Get(r, "past") == "true",
		Search:   query.Search(r, "q"),
	}
	if v := query.Get(r, "featured"); v != "" {
		featured := v == "true"
		filter.Featured = &featured
	}

	_, _, userID, signedIn := authz.UserCtx(r)
	if query.Get(r, "mine") == "true" && signedIn {
		filter.CreatedBy = &userID
	}
	// Non-staff callers never see drafts regardless of the status filter.
	if !authz.CanRequest(r, authz.ActionCreateEvents) && filter.CreatedBy == nil {
		filter.Status = models.EventPublished
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, total, err := h.Events.List(ctx, filter, page.Skip(), page.Limit64())
	if err != nil {
		h.Log.Error("event list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"events": rows,
		"meta":   paging.NewMeta(page, total),
	})
}

// HandleGet handles GET /api/events/{id}. The registrant list is included
// only for users who manage the event.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !eventpolicy.CanView(r, e) {
		httpjson.NotFound(w, "event not found")
		return
	}

	resp := map[string]any{
		"event":             e,
		"registrationCount": e.RegistrationCount(),
		"registrationOpen":  e.IsRegistrationOpen(time.Now().UTC()),
	}
	if eventpolicy.CanViewRegistrants(r, e) {
		resp["registrations"] = e.Registrations
	}
	httpjson.Write(w, http.StatusOK, resp)
}

type eventUpdateRequest struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	ShortDescription *string `json:"shortDescription,omitempty"`
	Category         *string `json:"category,omitempty"`

	StartDate            *time.Time `json:"startDate,omitempty"`
	EndDate              *time.Time `json:"endDate,omitempty"`
	RegistrationDeadline *time.Time `json:"registrationDeadline,omitempty"`

	Location        *string  `json:"location,omitempty"`
	MaxParticipants *int     `json:"maxParticipants,omitempty"`
	Fee             *float64 `json:"fee,omitempty"`
	Featured        *bool    `json:"featured,omitempty"`

	Coordinators             *[]string                `json:"coordinators,omitempty"`
	CustomRegistrationFields *[]models.CustomFieldDef `json:"customRegistrationFields,omitempty"`
}

// HandleUpdate handles PATCH /api/events/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !eventpolicy.CanManage(r, e) {
		httpjson.Forbidden(w, "you do not manage this event")
		return
	}

	var req eventUpdateRequest
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
	if req.MaxParticipants != nil && *req.MaxParticipants < 0 {
		fields["maxParticipants"] = "cannot be negative"
	}
	if req.Fee != nil && *req.Fee < 0 {
		fields["fee"] = "cannot be negative"
	}
	if req.CustomRegistrationFields != nil {
		seen := map[string]bool{}
		for _, def := range *req.CustomRegistrationFields {
			if err := def.ValidateDef(); err != nil {
				fields["customRegistrationFields"] = err.Error()
				break
			}
			if seen[def.ID] {
				fields["customRegistrationFields"] = "duplicate field id: " + def.ID
				break
			}
			seen[def.ID] = true
		}
	}
	upd := eventstore.EventUpdate{
		ShortDescription:         nil,
		StartDate:                req.StartDate,
		EndDate:                  req.EndDate,
		RegistrationDeadline:     req.RegistrationDeadline,
		Location:                 req.Location,
		MaxParticipants:          req.MaxParticipants,
		Fee:                      req.Fee,
		Featured:                 req.Featured,
		Category:                 req.Category,
		CustomRegistrationFields: req.CustomRegistrationFields,
	}
	if req.Title != nil {
		t := normalize.Name(*req.Title)
		upd.Title = &t
	}
	if req.Description != nil {
		d := htmlsanitize.Sanitize(*req.Description)
		upd.Description = &d
	}
	if req.ShortDescription != nil {
		sd := htmlsanitize.PlainText(*req.ShortDescription)
		upd.ShortDescription = &sd
	}
	if req.Coordinators != nil {
		ids, err := parseCoordinators(*req.Coordinators)
		if err != nil {
			fields["coordinators"] = "contains an invalid user id"
		} else {
			upd.Coordinators = &ids
		}
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Events.Update(ctx, e.ID, upd)
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusOK, updated)
	case err == eventstore.ErrBadDates:
		httpjson.ValidationError(w, map[string]string{"dates": err.Error()})
	case err == mongo.ErrNoDocuments:
		httpjson.NotFound(w, "event not found")
	default:
		h.Log.Error("event update failed", zap.Error(err))
		httpjson.Internal(w)
	}
}

type eventStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus handles PATCH /api/events/{id}/status: draft ->
// published -> completed/cancelled.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !eventpolicy.CanManage(r, e) {
		httpjson.Forbidden(w, "you do not manage this event")
		return
	}

	var req eventStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}
	status := normalize.Enum(req.Status)
	if !models.IsValidEventStatus(status) {
		httpjson.ValidationError(w, map[string]string{"status": "unknown status"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	updated, err := h.Events.UpdateStatus(ctx, e.ID, status)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "event not found")
			return
		}
		h.Log.Error("event status update failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/events/{id}. Stored images and photos
// are removed along with the document.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !eventpolicy.CanDelete(r, e) {
		httpjson.Forbidden(w, "only the creator can delete this event")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	deleted, err := h.Events.Delete(ctx, e.ID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "event not found")
			return
		}
		h.Log.Error("event delete failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	for _, path := range append(append([]string{}, deleted.Images...), deleted.EventPhotos...) {
		if err := h.Storage.Delete(ctx, path); err != nil {
			h.Log.Warn("event file cleanup failed", zap.String("path", path), zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadEvent resolves {id} and loads the event, writing the 404 itself when
// anything is off.
func (h *Handler) loadEvent(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w, "event not found")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "event not found")
			return nil, false
		}
		h.Log.Error("event load failed", zap.Error(err))
		httpjson.Internal(w)
		return nil, false
	}
	return e, true
}
