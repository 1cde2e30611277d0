// internal/app/features/events/register.go
package events

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	eventstore "github.com/sarithdm/iedc-website-sub000/internal/app/store/events"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/httpjson"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/inputval"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/normalize"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/timeouts"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/uploads"
	"github.com/sarithdm/iedc-website-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxMultipartMemory = 8 << 20

// HandleRegister handles POST /api/events/{id}/register: the public event
// registration form. multipart/form-data, since file-typed custom fields
// carry attachments.
//
// Base fields come first, then each custom field is validated against its
// definition. The append itself is a single conditional write, so the
// open/capacity/duplicate checks cannot race.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.NotFound(w, "event not found")
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "expected multipart form data")
		return
	}

	reg := models.Registrant{
		Name:  normalize.Name(r.FormValue("name")),
		Email: r.FormValue("email"),
		Phone: r.FormValue("phone"),
	}

	fields := map[string]string{}
	if reg.Name == "" {
		fields["name"] = "required"
	}
	if !inputval.IsValidEmail(reg.Email) {
		fields["email"] = "valid email required"
	}
	if reg.Phone != "" && !inputval.IsValidPhone(reg.Phone) {
		fields["phone"] = "invalid phone number"
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.NotFound(w, "event not found")
			return
		}
		h.Log.Error("event register: load failed", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	values, uploaded := h.resolveCustomFields(ctx, r, e, fields)
	if len(fields) > 0 {
		h.discardUploads(uploaded)
		httpjson.ValidationError(w, fields)
		return
	}
	reg.CustomFields = values

	err = h.Events.AppendRegistrant(ctx, id, reg)
	switch {
	case err == nil:
		httpjson.Write(w, http.StatusCreated, map[string]any{
			"message": "registered",
			"event":   e.Title,
		})
	case err == eventstore.ErrRegistrationClosed,
		err == eventstore.ErrEventFull:
		h.discardUploads(uploaded)
		httpjson.DomainError(w, err.Error())
	case err == eventstore.ErrAlreadyRegistered:
		h.discardUploads(uploaded)
		httpjson.Conflict(w, err.Error())
	case err == mongo.ErrNoDocuments:
		h.discardUploads(uploaded)
		httpjson.NotFound(w, "event not found")
	default:
		h.discardUploads(uploaded)
		h.Log.Error("event register: append failed", zap.Error(err))
		httpjson.Internal(w)
	}
}

// resolveCustomFields walks the event's field definitions, validating form
// values and storing file attachments. Violations go into fields keyed by
// the definition id; uploaded paths are returned so a later failure can
// clean them up.
func (h *Handler) resolveCustomFields(ctx context.Context, r *http.Request, e *models.Event, fields map[string]string) ([]models.CustomFieldValue, []string) {
	var values []models.CustomFieldValue
	var uploaded []string

	for _, def := range e.CustomRegistrationFields {
		if def.Type == models.FieldFile {
			file, header, err := r.FormFile("cf_" + def.ID)
			if err == http.ErrMissingFile {
				if def.Required {
					fields[def.ID] = def.Label + " is required"
				}
				continue
			}
			if err != nil {
				fields[def.ID] = "unreadable file"
				continue
			}
			info, err := uploads.Put(ctx, h.Storage, "events/registrations", header.Filename, file, header.Size, header.Header.Get("Content-Type"))
			file.Close()
			if err != nil {
				h.Log.Error("event register: upload failed", zap.Error(err))
				fields[def.ID] = "file upload failed"
				continue
			}
			uploaded = append(uploaded, info.Path)
			values = append(values, models.CustomFieldValue{FieldID: def.ID, Value: info.Path})
			continue
		}

		raw := r.FormValue("cf_" + def.ID)
		if err := def.ValidateValue(raw); err != nil {
			fields[def.ID] = err.Error()
			continue
		}
		if raw != "" {
			values = append(values, models.CustomFieldValue{FieldID: def.ID, Value: raw})
		}
	}
	return values, uploaded
}

// discardUploads best-effort deletes files stored for a registration that
// did not go through.
func (h *Handler) discardUploads(paths []string) {
	if len(paths) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()
	for _, p := range paths {
		if err := h.Storage.Delete(ctx, p); err != nil {
			h.Log.Warn("event register: upload cleanup failed", zap.String("path", p), zap.Error(err))
		}
	}
}
