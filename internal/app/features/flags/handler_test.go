package flags_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/channelhub/internal/app/features/flags"
	flagstore "github.com/dalemusser/channelhub/internal/app/system/flags"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newServer() http.Handler {
	store := flagstore.NewStore([]byte("flags-handler-test-key-0123456789"), "", false)
	r := chi.NewRouter()
	r.Mount("/api/flags", flags.Routes(flags.NewHandler(store, zap.NewNop())))
	return r
}

// send issues a request carrying cookies from prev.
func send(srv http.Handler, method, target, body string, prev *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if prev != nil {
		for _, c := range prev.Result().Cookies() {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestSetReadDelete(t *testing.T) {
	srv := newServer()

	set := send(srv, http.MethodPut, "/api/flags/banner.audio", `{"value":"dismissed"}`, nil)
	if set.Code != http.StatusOK {
		t.Fatalf("set: status = %d body %s", set.Code, set.Body.String())
	}

	all := send(srv, http.MethodGet, "/api/flags", "", set)
	if !strings.Contains(all.Body.String(), `"banner.audio":"dismissed"`) {
		t.Errorf("flags = %s", all.Body.String())
	}

	del := send(srv, http.MethodDelete, "/api/flags/banner.audio", "", set)
	if del.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", del.Code)
	}
	after := send(srv, http.MethodGet, "/api/flags", "", del)
	if strings.Contains(after.Body.String(), "banner.audio") {
		t.Errorf("flag survived delete: %s", after.Body.String())
	}
}

func TestSet_DefaultsToToday(t *testing.T) {
	srv := newServer()
	rec := send(srv, http.MethodPut, "/api/flags/tip.daily", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), flagstore.Day(time.Now())) {
		t.Errorf("body = %s, want today's date", rec.Body.String())
	}
}

func TestSet_BadKey(t *testing.T) {
	srv := newServer()
	rec := send(srv, http.MethodPut, "/api/flags/Bad%20Key", `{"value":"x"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSet_TamperedCookieStartsFresh(t *testing.T) {
	srv := newServer()
	req := httptest.NewRequest(http.MethodGet, "/api/flags", nil)
	req.AddCookie(&http.Cookie{Name: "channelhub-flags", Value: "forged"})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `"data":{}`) {
		t.Errorf("body = %s, want empty flag set", rec.Body.String())
	}
}
