package shared

import (
	"context"
	"net/http"

	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/authz"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ActingAgent resolves the agent a request acts for. Agents always act
// for themselves; admins name the agent by hex id. On failure the
// response has been written.
func ActingAgent(ctx context.Context, w http.ResponseWriter, r *http.Request, agents *agentstore.Store, log *zap.Logger, hexID string) (models.Agent, bool) {
	var (
		a   models.Agent
		err error
	)
	switch {
	case authz.IsAgent(r):
		_, _, uid, _ := authz.UserCtx(r)
		a, err = agents.GetByUserID(ctx, uid)
	case authz.IsAdmin(r):
		id, perr := primitive.ObjectIDFromHex(hexID)
		if perr != nil {
			apiresp.Invalid(w, map[string]string{"agent_id": "agent_id is required"})
			return models.Agent{}, false
		}
		a, err = agents.GetByID(ctx, id)
		if err == nil && !InWorkspace(r, a.WorkspaceID) {
			err = agentstore.ErrNotFound
		}
	default:
		apiresp.Error(w, http.StatusForbidden, "You don't have permission to do that.")
		return models.Agent{}, false
	}
	if err != nil {
		Fail(w, log, "load agent", "Agent", err, agentstore.ErrNotFound)
		return models.Agent{}, false
	}
	return a, true
}

// OwnsOrAdmin reports whether the caller may act on a record belonging to
// agent: admins of its workspace, or the agent's own user.
func OwnsOrAdmin(r *http.Request, agent models.Agent) bool {
	if authz.IsAdmin(r) {
		return InWorkspace(r, agent.WorkspaceID)
	}
	_, _, uid, ok := authz.UserCtx(r)
	return ok && authz.IsAgent(r) && agent.UserID == uid
}
