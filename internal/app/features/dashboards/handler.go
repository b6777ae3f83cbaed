// internal/app/features/dashboards/handler.go
package dashboards

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/app/system/authz"
	"github.com/dalemusser/channelhub/internal/app/system/dashsession"
	"github.com/dalemusser/channelhub/internal/app/system/normalize"
	"github.com/dalemusser/channelhub/internal/app/system/paging"
	"github.com/dalemusser/channelhub/internal/app/system/tabload"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CookieWriter persists the session user, used when a request arrives
// with a dashboard session id the registry no longer knows (for example
// after a restart). *auth.SessionManager satisfies it.
type CookieWriter interface {
	Login(w http.ResponseWriter, r *http.Request, u auth.SessionUser) error
}

// Handler serves the tab API for every dashboard.
type Handler struct {
	Sessions *dashsession.Registry
	Cookies  CookieWriter
	PageSize int
	Log      *zap.Logger
}

// NewHandler constructs the dashboards handler. cookies may be nil in tests.
func NewHandler(reg *dashsession.Registry, cookies CookieWriter, pageSize int, logger *zap.Logger) *Handler {
	if pageSize < 1 {
		pageSize = paging.DefaultSize
	}
	return &Handler{
		Sessions: reg,
		Cookies:  cookies,
		PageSize: pageSize,
		Log:      logger,
	}
}

// dashboardResponse is the body of GET /api/dashboards/{dash}.
type dashboardResponse struct {
	Dashboard tabs.Dashboard     `json:"dashboard"`
	Active    string             `json:"active"`
	Tabs      []tabload.TabState `json:"tabs"`
}

// tabResponse is the body of every per-tab endpoint.
type tabResponse struct {
	Tab     tabload.TabState `json:"tab"`
	Started bool             `json:"started,omitempty"`
	Data    any              `json:"data,omitempty"`
}

// session returns the dashboard session of the signed-in user, opening a
// fresh one when the cookie's id is unknown or belongs to a different
// identity (the user's role changed since login).
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*dashsession.Session, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apiresp.Error(w, http.StatusUnauthorized, "Please sign in.")
		return nil, false
	}
	sc, ok := authz.Scope(r)
	if !ok {
		apiresp.Error(w, http.StatusUnauthorized, "Please sign in.")
		return nil, false
	}

	if s, found := h.Sessions.Get(u.DashSessionID); found {
		if s.Scope == sc {
			return s, true
		}
		h.Sessions.End(s.ID)
	}

	s := h.Sessions.Open(sc)
	if h.Cookies != nil {
		fresh := *u
		fresh.DashSessionID = s.ID
		if err := h.Cookies.Login(w, r, fresh); err != nil {
			h.Log.Warn("could not persist dashboard session id",
				zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	return s, true
}

// controller resolves {dash} for the current user.
func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (*tabload.Controller, tabs.Dashboard, bool) {
	name := chi.URLParam(r, "dash")
	d, ok := tabs.Lookup(name)
	if !ok {
		apiresp.NotFound(w, "Dashboard")
		return nil, tabs.Dashboard{}, false
	}
	s, ok := h.session(w, r)
	if !ok {
		return nil, tabs.Dashboard{}, false
	}
	c, ok := s.Dashboard(name)
	if !ok {
		apiresp.Error(w, http.StatusForbidden, "You do not have access to this dashboard.")
		return nil, tabs.Dashboard{}, false
	}
	return c, d, true
}

// ServeDashboard handles GET /api/dashboards/{dash}. On the first visit the
// default tab is activated so its data starts loading immediately.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	c, d, ok := h.controller(w, r)
	if !ok {
		return
	}
	if c.Active() == "" && d.DefaultTab != "" {
		if _, err := c.Activate(r.Context(), d.DefaultTab); err != nil {
			h.Log.Error("activate default tab", zap.String("dashboard", d.Name), zap.Error(err))
		}
	}
	apiresp.OK(w, dashboardResponse{Dashboard: d, Active: c.Active(), Tabs: c.States()})
}

// Activate handles POST /api/dashboards/{dash}/tabs/{tab}/activate.
//
// The fetch runs in the background; the response reports "loading" and
// the client polls the tab endpoint. With ?wait=1 the handler holds the
// response until the fetch settles or the medium timeout passes, and then
// includes the first page.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	c, d, ok := h.controller(w, r)
	if !ok {
		return
	}
	tab := chi.URLParam(r, "tab")
	act, err := c.Activate(r.Context(), tab)
	if errors.Is(err, tabload.ErrUnknownTab) {
		apiresp.NotFound(w, "Tab")
		return
	}
	if err != nil {
		h.Log.Error("activate tab", zap.String("dashboard", d.Name), zap.String("tab", tab), zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not open this tab.")
		return
	}
	if wantWait(r) {
		h.wait(r.Context(), act.Done)
	}
	h.writeTab(w, r, c, d, tab, act.Started)
}

// Refresh handles POST /api/dashboards/{dash}/tabs/{tab}/refresh. The old
// payload stays visible until the new one arrives.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, d, ok := h.controller(w, r)
	if !ok {
		return
	}
	tab := chi.URLParam(r, "tab")
	act, err := c.Refresh(r.Context(), tab)
	if errors.Is(err, tabload.ErrUnknownTab) {
		apiresp.NotFound(w, "Tab")
		return
	}
	if err != nil {
		h.Log.Error("refresh tab", zap.String("dashboard", d.Name), zap.String("tab", tab), zap.Error(err))
		apiresp.Error(w, http.StatusInternalServerError, "Could not refresh this tab.")
		return
	}
	if wantWait(r) {
		h.wait(r.Context(), act.Done)
	}
	h.writeTab(w, r, c, d, tab, act.Started)
}

// ServeTab handles GET /api/dashboards/{dash}/tabs/{tab}. It never starts a
// fetch; it reports the tab's state and, once loaded, one page of rows
// filtered by q and category.
func (h *Handler) ServeTab(w http.ResponseWriter, r *http.Request) {
	c, d, ok := h.controller(w, r)
	if !ok {
		return
	}
	tab := chi.URLParam(r, "tab")
	if !c.Has(tab) {
		apiresp.NotFound(w, "Tab")
		return
	}
	h.writeTab(w, r, c, d, tab, false)
}

func (h *Handler) writeTab(w http.ResponseWriter, r *http.Request, c *tabload.Controller, d tabs.Dashboard, tab string, started bool) {
	st := c.State(tab)
	resp := tabResponse{Tab: st, Started: started}

	if st.State == tabload.Loaded {
		if payload, ok := c.Payload(tab); ok {
			resp.Data = h.shape(r, payload)
		}
	}
	if st.State == tabload.NotLoaded && st.Error != "" {
		apiresp.JSON(w, http.StatusOK, apiresp.Envelope{
			OK:    false,
			Toast: &apiresp.Toast{Kind: apiresp.KindError, Message: "Could not load " + label(d, tab) + "."},
			Data:  resp,
		})
		return
	}
	apiresp.OK(w, resp)
}

// shape pages list payloads; other payloads (stats) are returned whole.
func (h *Handler) shape(r *http.Request, payload any) any {
	p, ok := payload.(pager)
	if !ok {
		return payload
	}
	return p.page(h.parseQuery(r))
}

func (h *Handler) parseQuery(r *http.Request) listQuery {
	fuzzy, _ := strconv.ParseBool(query.Get(r, "fuzzy"))
	return listQuery{
		Page:     paging.ParsePage(r),
		Size:     paging.ParseSize(r, h.PageSize, paging.MaxSize),
		Term:     normalize.QueryParam(query.Search(r, "q")),
		Category: normalize.Category(query.Get(r, "category")),
		Fuzzy:    fuzzy,
	}
}

func (h *Handler) wait(ctx context.Context, done <-chan struct{}) {
	t := time.NewTimer(timeouts.Medium())
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
	case <-ctx.Done():
	}
}

func wantWait(r *http.Request) bool {
	v, _ := strconv.ParseBool(query.Get(r, "wait"))
	return v
}

func label(d tabs.Dashboard, id string) string {
	for _, t := range d.Tabs {
		if t.ID == id {
			return t.Label
		}
	}
	return id
}
