// internal/app/features/jobs/routes.go
package jobs

import (
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the job board API (e.g., at "/api/jobs").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Post("/{id}/status", h.HandleStatus)
		pr.Delete("/{id}", h.HandleDelete)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAgent))
		pr.Post("/{id}/claim", h.HandleClaim)
		pr.Post("/{id}/done", h.HandleDone)
	})

	return r
}
