package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/channelhub/internal/app/system/auth"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser is the identity injected into handler tests.
type TestUser struct {
	ID          string
	Name        string
	LoginID     string
	Role        string
	WorkspaceID string
	// DashSessionID selects a dashboard session opened by the test.
	DashSessionID string
}

func newTestUser(role, name string) TestUser {
	return TestUser{
		ID:      primitive.NewObjectID().Hex(),
		Name:    name,
		LoginID: strings.ToLower(strings.ReplaceAll(name, " ", ".")),
		Role:    role,
	}
}

// AdminUser returns an admin.
func AdminUser() TestUser { return newTestUser(models.RoleAdmin, "Test Admin") }

// AgentUser returns an agent whose user id is id.
func AgentUser(id primitive.ObjectID) TestUser {
	u := newTestUser(models.RoleAgent, "Test Agent")
	u.ID = id.Hex()
	return u
}

// TeacherUser returns a teacher whose user id is id.
func TeacherUser(id primitive.ObjectID) TestUser {
	u := newTestUser(models.RoleTeacher, "Test Teacher")
	u.ID = id.Hex()
	return u
}

// MemberUser returns a channel member whose user id is id.
func MemberUser(id primitive.ObjectID) TestUser {
	u := newTestUser(models.RoleMember, "Test Member")
	u.ID = id.Hex()
	return u
}

// SessionUser converts u for the auth package.
func (u TestUser) SessionUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:            u.ID,
		Name:          u.Name,
		LoginID:       u.LoginID,
		Role:          u.Role,
		WorkspaceID:   u.WorkspaceID,
		DashSessionID: u.DashSessionID,
	}
}

// WithUser injects user into the request context, bypassing the cookie.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, user.SessionUser())
}

// WithChiURLParams adds chi URL parameters (key, value pairs) to r.
func WithChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewJSONRequest builds a request with body encoded as JSON.
func NewJSONRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

// Envelope mirrors apiresp.Envelope with a raw data field for decoding.
type Envelope struct {
	OK    bool `json:"ok"`
	Toast *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"toast"`
	Fields map[string]string `json:"fields"`
	Data   json.RawMessage   `json:"data"`
}

// DecodeEnvelope parses a handler response.
func DecodeEnvelope(t interface {
	Helper()
	Fatalf(string, ...any)
}, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}
