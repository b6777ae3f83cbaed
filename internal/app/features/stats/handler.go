// internal/app/features/stats/handler.go
package stats

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/authz"
	"github.com/dalemusser/channelhub/internal/app/system/statsclient"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Source computes the counter records. metricsstore.Service satisfies it.
type Source interface {
	Wholesale(ctx context.Context, workspaceID primitive.ObjectID) models.WholesaleStats
	PendingAlerts(ctx context.Context, workspaceID primitive.ObjectID) models.AlertCounts
}

// Handler serves the counter endpoints read by statsclient. Admins reach
// them with their session; other instances present APIKey as a bearer
// token.
type Handler struct {
	Stats  Source
	APIKey string
	Log    *zap.Logger
}

func NewHandler(stats Source, apiKey string, logger *zap.Logger) *Handler {
	return &Handler{Stats: stats, APIKey: apiKey, Log: logger}
}

// scope returns the workspace to count, or a non-zero status when the
// caller may not read counters. Admins always see their own workspace.
// Key holders see the workspace named by workspace_id, or every
// workspace when it is absent.
func (h *Handler) scope(r *http.Request) (primitive.ObjectID, int) {
	if authz.IsAdmin(r) {
		return authz.WorkspaceID(r), 0
	}
	if h.APIKey == "" {
		return primitive.NilObjectID, http.StatusUnauthorized
	}
	tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(tok), []byte(h.APIKey)) != 1 {
		return primitive.NilObjectID, http.StatusUnauthorized
	}
	raw := r.URL.Query().Get(statsclient.WorkspaceParam)
	if raw == "" {
		return primitive.NilObjectID, 0
	}
	ws, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, http.StatusBadRequest
	}
	return ws, 0
}

func scopeError(w http.ResponseWriter, code int) {
	if code == http.StatusBadRequest {
		apiresp.Error(w, code, "Invalid workspace.")
		return
	}
	apiresp.Error(w, code, "Not allowed.")
}

// ServeWholesale handles GET /api/stats/wholesale with a flat JSON record.
func (h *Handler) ServeWholesale(w http.ResponseWriter, r *http.Request) {
	ws, code := h.scope(r)
	if code != 0 {
		scopeError(w, code)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	apiresp.JSON(w, http.StatusOK, h.Stats.Wholesale(ctx, ws))
}

// ServePendingAlerts handles GET /api/alerts/pending with a flat JSON record.
func (h *Handler) ServePendingAlerts(w http.ResponseWriter, r *http.Request) {
	ws, code := h.scope(r)
	if code != 0 {
		scopeError(w, code)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	apiresp.JSON(w, http.StatusOK, h.Stats.PendingAlerts(ctx, ws))
}
