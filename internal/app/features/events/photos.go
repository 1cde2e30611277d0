// internal/app/features/events/photos.go
package events

import (
	"context"
	"net/http"

	"github.com/sarithdm/iedc-website-sub000/internal/app/policy/eventpolicy"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/httpjson"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/timeouts"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/uploads"
	"go.uber.org/zap"
)

// HandleUploadImages handles POST /api/events/{id}/images: promotional
// images shown while the event is upcoming.
func (h *Handler) HandleUploadImages(w http.ResponseWriter, r *http.Request) {
	h.handleMediaUpload(w, r, "images")
}

// HandleUploadPhotos handles POST /api/events/{id}/photos: the post-event
// gallery.
func (h *Handler) HandleUploadPhotos(w http.ResponseWriter, r *http.Request) {
	h.handleMediaUpload(w, r, "photos")
}

func (h *Handler) handleMediaUpload(w http.ResponseWriter, r *http.Request, kind string) {
	e, ok := h.loadEvent(w, r)
	if !ok {
		return
	}
	if !eventpolicy.CanManage(r, e) {
		httpjson.Forbidden(w, "you do not manage this event")
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httpjson.Error(w, http.StatusBadRequest, httpjson.KindValidation, "expected multipart form data")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		httpjson.ValidationError(w, map[string]string{"files": "attach at least one image"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var paths []string
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			httpjson.ValidationError(w, map[string]string{"files": "unreadable file: " + header.Filename})
			return
		}
		info, err := uploads.PutImage(ctx, h.Storage, "events/"+kind, file, header)
		file.Close()
		if err != nil {
			httpjson.ValidationError(w, map[string]string{"files": err.Error()})
			return
		}
		paths = append(paths, info.Path)
	}

	var storeErr error
	if kind == "images" {
		storeErr = h.Events.AddImages(ctx, e.ID, paths)
	} else {
		storeErr = h.Events.AddPhotos(ctx, e.ID, paths)
	}
	if storeErr != nil {
		h.Log.Error("event media upload failed", zap.Error(storeErr))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]any{"paths": paths})
}
