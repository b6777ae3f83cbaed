// internal/app/features/orders/routes.go
package orders

import (
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the order API (e.g., at "/api/orders").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAgent, models.RoleAdmin, models.RoleSuperAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}", h.ServeOrder)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
		pr.Post("/{id}/status", h.HandleStatus)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
