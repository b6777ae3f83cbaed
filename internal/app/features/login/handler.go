// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to log in

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/channelhub/internal/app/store/users"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/app/system/dashsession"
	"github.com/dalemusser/channelhub/internal/app/system/inputval"
	"github.com/dalemusser/channelhub/internal/app/system/ratelimit"
	"github.com/dalemusser/channelhub/internal/app/system/tabload"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Sessions   *dashsession.Registry
	Guard      *ratelimit.LoginGuard
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, reg *dashsession.Registry, guard *ratelimit.LoginGuard, logger *zap.Logger) *Handler {
	if guard == nil {
		guard = ratelimit.NewLoginGuard()
	}
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		Sessions:   reg,
		Guard:      guard,
		Log:        logger,
	}
}

type loginInput struct {
	LoginID  string `json:"login_id" validate:"notblank,max=200"`
	Password string `json:"password" validate:"required,max=200"`
}

type loginResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Dashboard  string `json:"dashboard,omitempty"`
	DefaultTab string `json:"default_tab,omitempty"`
}

// HandleLogin handles POST /login.
//
// A successful sign-in opens a fresh dashboard session and stores its id in
// the cookie; any dashboard session the browser already held is ended so
// nothing cached for a previous identity survives.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := apiresp.Decode(r, &in); err != nil {
		apiresp.Error(w, http.StatusBadRequest, "Could not read the sign-in form.")
		return
	}
	if err := inputval.Struct(in); err != nil {
		apiresp.Invalid(w, inputval.Fields(err))
		return
	}
	if ok, msg := h.Guard.Check(r, in.LoginID); !ok {
		h.Log.Warn("login throttled", zap.String("login_id", in.LoginID))
		apiresp.Error(w, http.StatusTooManyRequests, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Authenticate(ctx, in.LoginID, in.Password)
	if errors.Is(err, userstore.ErrBadCredentials) || errors.Is(err, userstore.ErrNotFound) {
		apiresp.Error(w, http.StatusUnauthorized, "Invalid login or password.")
		return
	}
	if err != nil {
		h.Log.Error("authenticate", zap.String("login_id", in.LoginID), zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Sign-in is unavailable right now.")
		return
	}
	h.Guard.Succeeded(in.LoginID)

	if prev, ok := auth.CurrentUser(r); ok && prev.DashSessionID != "" {
		h.Sessions.End(prev.DashSessionID)
	}

	su := auth.SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.FullName,
		LoginID: u.LoginID,
		Role:    u.Role,
	}
	if u.WorkspaceID != nil {
		su.WorkspaceID = u.WorkspaceID.Hex()
	}
	s := h.Sessions.Open(tabload.Scope{UserID: su.ID, Role: su.Role, WorkspaceID: su.WorkspaceID})
	su.DashSessionID = s.ID

	if err := h.SessionMgr.Login(w, r, su); err != nil {
		h.Sessions.End(s.ID)
		h.Log.Error("save session", zap.String("user_id", su.ID), zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Sign-in is unavailable right now.")
		return
	}

	res := loginResult{ID: su.ID, Name: su.Name, Role: su.Role}
	if d, ok := tabs.ForRole(su.Role); ok {
		res.Dashboard = d.Name
		res.DefaultTab = d.DefaultTab
	}
	h.Log.Info("user signed in", zap.String("user_id", su.ID), zap.String("role", su.Role))
	apiresp.Success(w, "Welcome back, "+u.FullName+".", res)
}
