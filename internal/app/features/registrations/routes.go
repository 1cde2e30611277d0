// internal/app/features/registrations/routes.go
package registrations

import (
	"github.com/go-chi/chi/v5"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/auth"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
)

// Routes mounts membership-application routes. Typically:
// r.Mount("/api/registrations", registrations.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public application form.
	r.Post("/", h.HandleSubmit)

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(authz.RolesFor(authz.ActionReviewRegistrations)...))
		ar.Get("/", h.HandleList)
		ar.Get("/{id}", h.HandleGet)
		ar.Patch("/{id}/status", h.HandleUpdateStatus)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(authz.RolesFor(authz.ActionDeleteRegistrations)...))
		ar.Delete("/{id}", h.HandleDelete)
	})

	return r
}
