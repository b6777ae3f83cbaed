package statsclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/channelhub/internal/app/system/statsclient"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestWholesale_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != statsclient.WholesalePath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want none for all workspaces", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orders":12,"completed":9,"pending":3,"revenue":"450.75"}`))
	}))
	defer srv.Close()

	c := statsclient.New(srv.URL, srv.Client(), zap.NewNop())
	got, ok := c.Wholesale(context.Background(), primitive.NilObjectID)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if got.Orders != 12 || got.Completed != 9 || got.Pending != 3 {
		t.Errorf("counts = %+v", got)
	}
	if got.Revenue.String() != "450.75" {
		t.Errorf("revenue = %s, want 450.75", got.Revenue.String())
	}
}

func TestPendingAlerts_ZeroFilledOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"pending_orders":`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := statsclient.New(srv.URL, srv.Client(), zap.NewNop())
			got, ok := c.PendingAlerts(context.Background(), primitive.NilObjectID)
			if ok {
				t.Error("expected ok=false")
			}
			if got != (models.AlertCounts{}) {
				t.Errorf("got %+v, want zero record", got)
			}
		})
	}
}

func TestPendingAlerts_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := statsclient.New(url, nil, zap.NewNop())
	if got, ok := c.PendingAlerts(context.Background(), primitive.NilObjectID); ok || got.Total() != 0 {
		t.Errorf("PendingAlerts = (%+v, %v), want zero and false", got, ok)
	}
}

func TestPendingAlerts_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pending_withdrawals":2,"pending_orders":1,"failed_orders":0,"pending_agents":4}`))
	}))
	defer srv.Close()

	got, ok := statsclient.New(srv.URL+"/", nil, zap.NewNop()).PendingAlerts(context.Background(), primitive.NilObjectID)
	if !ok || got.Total() != 7 {
		t.Errorf("PendingAlerts = (%+v, %v), want total 7", got, ok)
	}
}

func TestWholesale_SendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer k-123" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"orders":1}`))
	}))
	defer srv.Close()

	c := statsclient.New(srv.URL, srv.Client(), zap.NewNop())
	c.APIKey = "k-123"
	if _, ok := c.Wholesale(context.Background(), primitive.NilObjectID); !ok {
		t.Fatal("expected ok=true")
	}
}

func TestGet_SendsWorkspace(t *testing.T) {
	ws := primitive.NewObjectID()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if got := r.URL.Query().Get(statsclient.WorkspaceParam); got != ws.Hex() {
			t.Errorf("%s workspace_id = %q, want %q", r.URL.Path, got, ws.Hex())
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := statsclient.New(srv.URL, srv.Client(), zap.NewNop())
	if _, ok := c.Wholesale(context.Background(), ws); !ok {
		t.Fatal("Wholesale ok=false")
	}
	if _, ok := c.PendingAlerts(context.Background(), ws); !ok {
		t.Fatal("PendingAlerts ok=false")
	}
	if len(paths) != 2 {
		t.Errorf("requests = %v, want 2", paths)
	}
}
