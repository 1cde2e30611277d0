// internal/app/features/events/routes.go
package events

import (
	"github.com/go-chi/chi/v5"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/auth"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
)

// Routes mounts event routes. Typically:
// r.Mount("/api/events", events.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public listing, detail, and registration.
	r.Get("/", h.HandleList)
	r.Get("/{id}", h.HandleGet)
	r.Post("/{id}/register", h.HandleRegister)

	r.Group(func(mr chi.Router) {
		mr.Use(auth.RequireRole(authz.RolesFor(authz.ActionCreateEvents)...))

		mr.Post("/", h.HandleCreate)
		mr.Patch("/{id}", h.HandleUpdate)
		mr.Patch("/{id}/status", h.HandleUpdateStatus)
		mr.Delete("/{id}", h.HandleDelete)
		mr.Post("/{id}/images", h.HandleUploadImages)
		mr.Post("/{id}/photos", h.HandleUploadPhotos)
	})

	return r
}
