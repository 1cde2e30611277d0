// internal/app/features/proposals/routes.go
package proposals

import (
	"github.com/go-chi/chi/v5"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/auth"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
)

// Routes mounts event-proposal routes. Typically:
// r.Mount("/api/proposals", proposals.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/", h.HandleCreate)
		pr.Get("/", h.HandleList)
		pr.Get("/{id}", h.HandleGet)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	r.Group(func(rr chi.Router) {
		rr.Use(auth.RequireRole(authz.RolesFor(authz.ActionReviewProposals)...))

		rr.Patch("/{id}/status", h.HandleUpdateStatus)
		rr.Post("/{id}/implement", h.HandleImplement)
	})

	return r
}
