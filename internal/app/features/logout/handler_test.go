package logout_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/channelhub/internal/app/features/logout"
	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/app/system/dashsession"
	"github.com/dalemusser/channelhub/internal/app/system/tabload"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*logout.Handler, *dashsession.Registry) {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	reg := dashsession.NewRegistry(func(string, tabload.Scope) ([]tabload.Tab, bool) { return nil, false }, logger)
	return logout.NewHandler(sm, reg, logger), reg
}

func TestServeLogout_EndsDashboardSession(t *testing.T) {
	h, reg := newTestHandler(t)
	user := testutil.MemberUser(primitive.NewObjectID())
	s := reg.Open(tabload.Scope{UserID: user.ID, Role: user.Role})
	s.Cache.Set("member/feed-"+user.ID, "rows")
	user.DashSessionID = s.ID

	req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/logout", nil), user)
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := reg.Get(s.ID); ok {
		t.Error("dashboard session still registered after logout")
	}
	if s.Cache.Len() != 0 {
		t.Errorf("cache entries after logout = %d, want 0", s.Cache.Len())
	}
	if c := rec.Header().Get("Set-Cookie"); !strings.Contains(c, "Max-Age=0") {
		t.Errorf("cookie not expired: %q", c)
	}
}

func TestServeLogout_Anonymous(t *testing.T) {
	h, reg := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if reg.Len() != 0 {
		t.Errorf("sessions = %d", reg.Len())
	}
}
