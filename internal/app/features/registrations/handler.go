// internal/app/features/registrations/handler.go
package registrations

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	registrationstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/registrations"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/htmlsanitize"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/httpjson"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/inputval"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/normalize"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/paging"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/timeouts"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/uploads"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxMultipartMemory = 8 << 20

// Handler is the feature-level handler for membership applications.
type Handler struct {
	Registrations *registrationstore.Store
	Storage       storage.Store
	Log           *zap.Logger
}

func NewHandler(db *mongo.Database, store storage.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Registrations: registrationstore.New(db),
		Storage:       store,
		Log:           logger,
	}
}

// HandleSubmit handles POST /api/registrations: the public membership
// application form. Accepts multipart/form-data so the applicant can attach
// a photo and ID card scan alongside the fields.
//
// Validation enumerates every violated field in one response rather than
// stopping at the first.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "expected multipart form data")
		return
	}

	reg := models.Registration{
		FirstName:       normalize.Name(r.FormValue("firstName")),
		LastName:        normalize.Name(r.FormValue("lastName")),
		Email:           r.FormValue("email"),
		Phone:           r.FormValue("phone"),
		Department:      r.FormValue("department"),
		Semester:        strings.ToUpper(strings.TrimSpace(r.FormValue("semester"))),
		AdmissionNumber: r.FormValue("admissionNumber"),
		Motivation:      htmlsanitize.PlainText(r.FormValue("motivation")),
	}
	for _, v := range r.Form["interests"] {
		reg.Interests = append(reg.Interests, normalize.Enum(v))
	}

	fields := map[string]string{}
	if reg.FirstName == "" {
		fields["firstName"] = "required"
	}
	if reg.LastName == "" {
		fields["lastName"] = "required"
	}
	if !inputval.IsValidEmail(reg.Email) {
		fields["email"] = "valid email required"
	}
	if !inputval.IsValidPhone(reg.Phone) {
		fields["phone"] = "invalid phone number"
	}
	if _, ok := models.DeptCode(reg.Department); !ok {
		fields["department"] = "unknown department"
	}
	if year, err := strconv.Atoi(r.FormValue("yearOfJoining")); err != nil || !models.IsValidJoiningYear(year) {
		fields["yearOfJoining"] = "not an accepted year"
	} else {
		reg.YearOfJoining = year
	}
	if !models.IsValidSemester(reg.Semester) {
		fields["semester"] = "must be S1 through S8"
	}
	if len(reg.Interests) == 0 {
		fields["interests"] = "select at least one interest"
	}
	for _, v := range reg.Interests {
		if !models.IsValidInterest(v) {
			fields["interests"] = "unknown interest: " + v
			break
		}
	}
	if reg.Motivation == "" {
		fields["motivation"] = "required"
	} else if len(reg.Motivation) > models.MaxMotivationLength {
		fields["motivation"] = "too long"
	}
	if len(fields) > 0 {
		httpjson.ValidationError(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Optional attachments.
	for formKey, dest := range map[string]*string{
		"photo":  &reg.PhotoPath,
		"idCard": &reg.IDCardPath,
	} {
		file, header, err := r.FormFile(formKey)
		if err == http.ErrMissingFile {
			continue
		}
		if err != nil {
			httpjson.ValidationError(w, map[string]string{formKey: "unreadable file"})
			return
		}
		info, err := uploads.PutImage(ctx, h.Storage, "registrations", file, header)
		file.Close()
		if err != nil {
			httpjson.ValidationError(w, map[string]string{formKey: err.Error()})
			return
		}
		*dest = info.Path
	}

	created, err := h.Registrations.Create(ctx, reg)
	switch {
	case err == nil:
	case err == registrationstore.ErrDuplicateEmail,
		err == registrationstore.ErrDuplicateAdmission:
		h.cleanupFiles(&reg)
		httpjson.Conflict(w, err.Error())
		return
	default:
		h.cleanupFiles(&reg)
		h.Log.Error("registration submit failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	httpjson.Write(w, http.StatusCreated, created)
}

// HandleList handles GET /api/registrations?status=&department=&q=&page=&limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)
	filter := registrationstore.ListFilter{
		Status:     query.Get(r, "status"),
		Department: query.Get(r, "department"),
		Search:     query.Search(r, "q"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, total, err := h.Registrations.List(ctx, filter, page.Skip(), page.Limit64())
	if err != nil {
		h.Log.Error("registration list failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"registrations": rows,
		"meta":          paging.NewMeta(page, total),
	})
}

// HandleGet handles GET /api/registrations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w, "registration not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	reg, err := h.Registrations.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "registration not found")
			return
		}
		h.Log.Error("registration get failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, reg)
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// HandleUpdateStatus handles PATCH /api/registrations/{id}/status: the
// admin review decision.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w, "registration not found")
		return
	}
	_, _, reviewerID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Unauthorized(w, "authentication required")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	reg, err := h.Registrations.UpdateStatus(ctx, id, normalize.Enum(req.Status), reviewerID, htmlsanitize.PlainText(req.Notes))
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusOK, reg)
	case err == registrationstore.ErrBadStatus:
		httpjson.ValidationError(w, map[string]string{"status": err.Error()})
	case err == mongo.ErrNoDocuments:
		httpjson.NotFound(w, "registration not found")
	default:
		h.Log.Error("registration status update failed", zap.Error(err))
		httpjson.Internal(w)
	}
}

// HandleDelete handles DELETE /api/registrations/{id}. Stored attachments
// go with the document.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w, "registration not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	reg, err := h.Registrations.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "registration not found")
			return
		}
		h.Log.Error("registration delete lookup failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	if _, err := h.Registrations.Delete(ctx, id); err != nil {
		h.Log.Error("registration delete failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	h.cleanupFiles(reg)
	w.WriteHeader(http.StatusNoContent)
}

// cleanupFiles best-effort deletes an application's stored attachments.
// Failures are logged; an orphaned file is preferable to a failed request.
func (h *Handler) cleanupFiles(reg *models.Registration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	for _, path := range []string{reg.PhotoPath, reg.IDCardPath} {
		if path == "" {
			continue
		}
		if err := h.Storage.Delete(ctx, path); err != nil {
			h.Log.Warn("registration file cleanup failed", zap.String("path", path), zap.Error(err))
		}
	}
}
