// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/auth"
	"github.com/sarithdm/iedc-website-sub000/internal/app/system/authz"
)

// Routes mounts user and team-directory routes. Typically:
// r.Mount("/api/users", users.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public team directory.
	r.Get("/team", h.HandleTeam)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/{id}", h.HandleGet)
		pr.Patch("/{id}", h.HandleUpdate)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(authz.RolesFor(authz.ActionInviteUsers)...))
		ar.Post("/invite", h.HandleInvite)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(authz.RolesFor(authz.ActionManageUsers)...))
		ar.Get("/", h.HandleList)
		ar.Delete("/{id}", h.HandleDeactivate)
	})

	return r
}
