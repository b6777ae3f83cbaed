package flags

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testKey = []byte("flags-test-key-0123456789abcdef!")

func carry(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSetThenGet(t *testing.T) {
	s := NewStore(testKey, "", false)

	rec := httptest.NewRecorder()
	if _, err := s.Set(rec, httptest.NewRequest("GET", "/", nil), "audio-banner", "2026-10-15"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := s.Get(carry(rec), "audio-banner")
	if !ok || got != "2026-10-15" {
		t.Errorf("Get = (%q, %v), want (2026-10-15, true)", got, ok)
	}
}

func TestTamperedCookieIsIgnored(t *testing.T) {
	s := NewStore(testKey, "", false)
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "channelhub-flags", Value: "forged"})
	if n := len(s.All(req)); n != 0 {
		t.Errorf("All on tampered cookie returned %d flags", n)
	}
}

func TestDelete(t *testing.T) {
	s := NewStore(testKey, "", false)
	rec := httptest.NewRecorder()
	_, _ = s.Set(rec, httptest.NewRequest("GET", "/", nil), "a", "1")

	rec2 := httptest.NewRecorder()
	all, err := s.Delete(rec2, carry(rec), "a")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := all["a"]; ok {
		t.Error("flag survived Delete")
	}
	if _, ok := s.Get(carry(rec2), "a"); ok {
		t.Error("flag still present in rewritten cookie")
	}
}

func TestSet_Validation(t *testing.T) {
	s := NewStore(testKey, "", false)
	req := httptest.NewRequest("GET", "/", nil)

	if _, err := s.Set(httptest.NewRecorder(), req, "Bad Key", "x"); !errors.Is(err, ErrBadKey) {
		t.Errorf("bad key: err = %v", err)
	}
	if _, err := s.Set(httptest.NewRecorder(), req, "ok", strings.Repeat("x", MaxValueLen+1)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("long value: err = %v", err)
	}
}

func TestSeenOn(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	all := map[string]string{"audio-banner": Day(now)}
	if !SeenOn(all, "audio-banner", now.Add(5*time.Hour)) {
		t.Error("expected flag to count for the same day")
	}
	if SeenOn(all, "audio-banner", now.Add(24*time.Hour)) {
		t.Error("flag should expire the next day")
	}
}
