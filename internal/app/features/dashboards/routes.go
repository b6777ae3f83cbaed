// internal/app/features/dashboards/routes.go
package dashboards

import (
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the tab API under the mount point chosen by the top-level
// router (e.g., "/api/dashboards").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/{dash}", h.ServeDashboard)
		pr.Get("/{dash}/tabs/{tab}", h.ServeTab)
		pr.Post("/{dash}/tabs/{tab}/activate", h.Activate)
		pr.Post("/{dash}/tabs/{tab}/refresh", h.Refresh)
	})

	return r
}
