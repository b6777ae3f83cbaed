// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/authz"
)

// Handler is the errors feature handler. It answers the redirect targets
// used by the auth middleware and the router's fallbacks, always as JSON.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

type errorPage struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	SignedIn bool   `json:"signed_in"`
	Role     string `json:"role,omitempty"`
	BackURL  string `json:"back_url"`
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, code int, title, msg, back string) {
	role, _, _, signedIn := authz.UserCtx(r)
	if !signedIn {
		role = ""
	}
	apiresp.JSON(w, code, apiresp.Envelope{
		OK:    false,
		Toast: &apiresp.Toast{Kind: apiresp.KindError, Message: msg},
		Data: errorPage{
			Title:    title,
			Message:  msg,
			SignedIn: signedIn,
			Role:     role,
			BackURL:  back,
		},
	})
}

// Forbidden handles GET /forbidden.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusForbidden, "Access denied", "You don't have permission to view this page.", "/")
}

// Unauthorized handles GET /unauthorized.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", "/login")
}

// NotFound is the router's fallback for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusNotFound, "Not found", "Nothing lives at "+r.URL.Path+".", "/")
}

// MethodNotAllowed is the router's fallback for a known path with the
// wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusMethodNotAllowed, "Not allowed", r.Method+" is not supported here.", "/")
}
