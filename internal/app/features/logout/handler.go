// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/app/system/dashsession"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Sessions   *dashsession.Registry
}

func NewHandler(sessionMgr *auth.SessionManager, reg *dashsession.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Sessions:   reg,
	}
}

// ServeLogout handles POST /logout. The cookie is expired and the
// dashboard session it pointed to is torn down, clearing every tab cache
// and loaded-set.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	dashID, err := h.SessionMgr.Logout(w, r)
	if err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	if dashID == "" {
		if u, ok := auth.CurrentUser(r); ok {
			dashID = u.DashSessionID
		}
	}
	if dashID != "" {
		h.Sessions.End(dashID)
	}
	apiresp.Success(w, "Signed out.", nil)
}
