// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/app/system/authz"
	"github.com/dalemusser/channelhub/internal/app/system/dashsession"
	"go.uber.org/zap"
)

// Handler keeps a browser's dashboard session from being swept while the
// page is open but idle.
type Handler struct {
	Sessions *dashsession.Registry
	Log      *zap.Logger
}

// NewHandler creates a new heartbeat handler.
func NewHandler(reg *dashsession.Registry, logger *zap.Logger) *Handler {
	return &Handler{Sessions: reg, Log: logger}
}

type heartbeatResponse struct {
	// Alive is false when the dashboard session was swept or belongs to a
	// different identity; the client should reload its dashboard.
	Alive bool `json:"alive"`
}

// ServeHeartbeat handles POST /api/heartbeat. Failures are silent: the
// heartbeat never surfaces an error to the user.
func (h *Handler) ServeHeartbeat(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.DashSessionID == "" {
		apiresp.JSON(w, http.StatusOK, heartbeatResponse{})
		return
	}
	s, found := h.Sessions.Get(u.DashSessionID)
	if !found {
		h.Log.Debug("heartbeat for swept dashboard session", zap.String("user_id", u.ID))
		apiresp.JSON(w, http.StatusOK, heartbeatResponse{})
		return
	}
	sc, ok := authz.Scope(r)
	apiresp.JSON(w, http.StatusOK, heartbeatResponse{Alive: ok && s.Scope == sc})
}
