package shared_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	"github.com/dalemusser/channelhub/internal/app/system/storeerr"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	errMissing  = errors.New("thing not found")
	errConflict = errors.New("thing is busy")
)

func TestFail_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"not found", fmt.Errorf("load: %w", errMissing), http.StatusNotFound, "Thing not found."},
		{"invalid", storeerr.Invalid("name is required"), http.StatusBadRequest, "name is required"},
		{"conflict", errConflict, http.StatusConflict, "thing is busy"},
		{"timeout", fmt.Errorf("find: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "The request took too long. Please try again."},
		{"other", errors.New("boom"), http.StatusInternalServerError, "Something went wrong. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			shared.Fail(rec, zap.NewNop(), "op", "Thing", tt.err, errMissing, errConflict)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			env := testutil.DecodeEnvelope(t, rec)
			if env.OK || env.Toast == nil || env.Toast.Message != tt.message {
				t.Errorf("envelope = %+v, want toast %q", env, tt.message)
			}
		})
	}
}

func TestObjectID(t *testing.T) {
	req := testutil.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", "not-hex")
	rec := httptest.NewRecorder()
	if _, ok := shared.ObjectID(rec, req, "id", "order"); ok {
		t.Fatal("ObjectID accepted a malformed id")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	req = testutil.WithChiURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "id", "64b7f0c2a1b2c3d4e5f60718")
	rec = httptest.NewRecorder()
	oid, ok := shared.ObjectID(rec, req, "id", "order")
	if !ok || oid.Hex() != "64b7f0c2a1b2c3d4e5f60718" {
		t.Errorf("ObjectID = %v, %v", oid, ok)
	}
}

func TestBind_ReportsFields(t *testing.T) {
	type input struct {
		Name string `json:"name" validate:"notblank"`
	}
	var in input
	rec := httptest.NewRecorder()
	if shared.Bind(rec, testutil.NewJSONRequest(http.MethodPost, "/", map[string]string{"name": "  "}), &in) {
		t.Fatal("Bind accepted a blank name")
	}
	env := testutil.DecodeEnvelope(t, rec)
	if env.Fields["name"] == "" {
		t.Errorf("fields = %v, want name", env.Fields)
	}

	rec = httptest.NewRecorder()
	if shared.Bind(rec, testutil.NewJSONRequest(http.MethodPost, "/", map[string]string{"nme": "x"}), &in) {
		t.Fatal("Bind accepted an unknown field")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestOrNop(t *testing.T) {
	if n := shared.OrNop(nil).Invalidate(context.Background(), "u", "admin", "orders"); n != 0 {
		t.Errorf("nop Invalidate = %d", n)
	}
	rec := &testutil.Invalidations{}
	shared.OrNop(rec).InvalidateDashboard(context.Background(), "admin", "orders", "overview")
	if !rec.Has("* admin:orders,overview") {
		t.Errorf("calls = %v", rec.Calls())
	}
}

func TestInWorkspace(t *testing.T) {
	ws := primitive.NewObjectID()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	super := testutil.AdminUser()
	if !shared.InWorkspace(testutil.WithUser(req, super), ws) {
		t.Error("admin without a workspace should see every workspace")
	}

	scoped := testutil.AdminUser()
	scoped.WorkspaceID = ws.Hex()
	if !shared.InWorkspace(testutil.WithUser(req, scoped), ws) {
		t.Error("admin should see their own workspace")
	}
	if shared.InWorkspace(testutil.WithUser(req, scoped), primitive.NewObjectID()) {
		t.Error("admin should not see another workspace")
	}
}
