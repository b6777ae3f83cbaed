// internal/app/features/stats/routes.go
package stats

import "github.com/go-chi/chi/v5"

// Routes serves the counter endpoints; mount under /api.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/stats/wholesale", h.ServeWholesale)
	r.Get("/alerts/pending", h.ServePendingAlerts)
	return r
}
