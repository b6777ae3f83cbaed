// internal/app/features/withdrawals/routes.go
package withdrawals

import (
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the withdrawal API (e.g., at "/api/withdrawals").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAgent, models.RoleAdmin, models.RoleSuperAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}/cancel", h.HandleCancel)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
		pr.Post("/{id}/approve", h.HandleApprove)
		pr.Post("/{id}/reject", h.HandleReject)
		pr.Post("/{id}/paid", h.HandlePaid)
	})

	return r
}
