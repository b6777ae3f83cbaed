// internal/app/features/flags/routes.go
package flags

import "github.com/go-chi/chi/v5"

// Routes mounts the flag API (e.g., at "/api/flags"). Flags belong to the
// browser, so no sign-in is required.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeAll)
	r.Put("/{key}", h.HandleSet)
	r.Delete("/{key}", h.HandleDelete)
	return r
}
