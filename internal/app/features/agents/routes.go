// internal/app/features/agents/routes.go
package agents

import (
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the agent admin API (e.g., at "/api/agents").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}", h.ServeAgent)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Post("/{id}/status", h.HandleStatus)
		pr.Post("/{id}/credit", h.HandleCredit)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
