// internal/app/features/channel/routes.go
package channel

import (
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the teaching channel API (e.g., at "/api/channel").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Authoring: the teacher's own channel.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleTeacher))
		pr.Get("/", h.ServeMine)
		pr.Post("/", h.HandleCreate)
		pr.Patch("/", h.HandleUpdate)

		pr.Post("/posts", h.HandleCreatePost)
		pr.Patch("/posts/{id}", h.HandleUpdatePost)
		pr.Delete("/posts/{id}", h.HandleDeletePost)
		pr.Post("/posts/{id}/pin", h.HandlePinPost)

		pr.Post("/qa/{id}/answer", h.HandleAnswer)
		pr.Post("/qa/{id}/resolve", h.HandleResolve)

		pr.Post("/videos", h.HandleCreateVideo)
		pr.Post("/videos/{id}/pin", h.HandlePinVideo)
		pr.Delete("/videos/{id}", h.HandleDeleteVideo)

		pr.Post("/notes", h.HandleCreateNote)
		pr.Patch("/notes/{id}", h.HandleUpdateNote)
		pr.Delete("/notes/{id}", h.HandleDeleteNote)
	})

	// Members.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleMember))
		pr.Get("/directory", h.ServeDirectory)
		pr.Post("/channels/{id}/subscribe", h.HandleSubscribe)
		pr.Delete("/channels/{id}/subscribe", h.HandleUnsubscribe)
		pr.Post("/channels/{id}/qa", h.HandleAsk)
		pr.Post("/posts/{id}/like", h.HandleLike)
		pr.Post("/posts/{id}/save", h.HandleSave)
	})

	// Either side of a channel.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleTeacher, models.RoleMember))
		pr.Get("/posts/{id}", h.ServePost)
		pr.Post("/posts/{id}/comments", h.HandleComment)
		pr.Delete("/comments/{id}", h.HandleDeleteComment)
		pr.Delete("/qa/{id}", h.HandleDeleteQuestion)
	})

	return r
}
