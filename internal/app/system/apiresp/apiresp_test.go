package apiresp

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadGateway, "Could not load orders")

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	want := `{"ok":false,"toast":{"kind":"error","message":"Could not load orders"}}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestInvalid_IncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Invalid(rec, map[string]string{"amount": "amount must be a positive amount"})

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.OK || rec.Code != http.StatusBadRequest {
		t.Errorf("unexpected envelope %+v (status %d)", env, rec.Code)
	}
	if env.Fields["amount"] == "" {
		t.Errorf("fields = %v, want amount entry", env.Fields)
	}
}

func TestOK_WrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"n": 3})
	want := `{"ok":true,"data":{"n":3}}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`))
	if err := Decode(r, &dst); err != nil || dst.Name != "x" {
		t.Errorf("Decode = %v, name %q", err, dst.Name)
	}

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"nope":1}`))
	if err := Decode(r, &dst); !errors.Is(err, ErrBadBody) {
		t.Errorf("unknown field: err = %v, want ErrBadBody", err)
	}
}
