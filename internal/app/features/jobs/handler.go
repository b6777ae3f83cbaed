// internal/app/features/jobs/handler.go
package jobs

import (
	"context"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	jobstore "github.com/dalemusser/channelhub/internal/app/store/jobs"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/authz"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/app/system/txn"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Lifecycle: open -> assigned (an agent claims it) -> done (the agent
// reports it finished) -> closed (an admin accepts it and the reward is
// credited). Admins may also reopen or close a job at any point.
type Handler struct {
	DB     *mongo.Database
	Jobs   *jobstore.Store
	Agents *agentstore.Store
	Tabs   shared.Invalidator
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, inv shared.Invalidator, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Jobs:   jobstore.New(db),
		Agents: agentstore.New(db),
		Tabs:   shared.OrNop(inv),
		Log:    logger,
	}
}

// changed refreshes every jobs tab: open jobs appear on all agent boards.
func (h *Handler) changed(r *http.Request) {
	h.Tabs.InvalidateDashboard(r.Context(), tabs.Admin, tabs.Jobs)
	h.Tabs.InvalidateDashboard(r.Context(), tabs.Agent, tabs.Jobs)
}

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Job, bool) {
	id, ok := shared.ObjectID(w, r, "id", "job")
	if !ok {
		return models.Job{}, false
	}
	j, err := h.Jobs.GetByID(ctx, id)
	if err == nil && !shared.InWorkspace(r, j.WorkspaceID) {
		err = jobstore.ErrNotFound
	}
	if err != nil {
		shared.Fail(w, h.Log, "load job", "Job", err, jobstore.ErrNotFound)
		return models.Job{}, false
	}
	return j, true
}

type jobInput struct {
	Title       string `json:"title" validate:"notblank,max=120"`
	Description string `json:"description" validate:"max=4000"`
	Category    string `json:"category" validate:"max=40"`
	Reward      string `json:"reward" validate:"omitempty,money"`
}

func (in jobInput) reward() models.Money {
	if in.Reward == "" {
		return models.MoneyFromInt(0)
	}
	m, _ := models.NewMoney(in.Reward)
	return m
}

// HandleCreate handles POST /api/jobs (admins).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in jobInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	j, err := h.Jobs.Create(ctx, models.Job{
		WorkspaceID: authz.WorkspaceID(r),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Reward:      in.reward(),
	})
	if err != nil {
		shared.Fail(w, h.Log, "create job", "Job", err, nil)
		return
	}
	h.changed(r)
	apiresp.Created(w, "Job posted.", j)
}

// HandleUpdate handles PATCH /api/jobs/{id} (admins).
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in jobInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	j, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Jobs.UpdateDetails(ctx, j.ID, jobstore.Update{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Reward:      in.reward(),
	}); err != nil {
		shared.Fail(w, h.Log, "update job", "Job", err, jobstore.ErrNotFound)
		return
	}
	h.changed(r)
	apiresp.Success(w, "Job updated.", nil)
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=open assigned done closed"`
}

// HandleStatus handles POST /api/jobs/{id}/status (admins). Closing a done
// job credits its reward to the assignee.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	j, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	pay := in.Status == status.Closed && j.Status == status.Done && j.AssignedTo != nil && j.Reward.Positive()
	var err error
	if pay {
		err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
			if err := h.Jobs.Move(ctx, j.ID, status.Done, status.Closed); err != nil {
				return err
			}
			return h.Agents.Credit(ctx, *j.AssignedTo, j.Reward)
		})
	} else {
		err = h.Jobs.SetStatus(ctx, j.ID, in.Status)
	}
	if err != nil {
		shared.Fail(w, h.Log, "set job status", "Job", err, jobstore.ErrNotFound,
			jobstore.ErrStatusChanged, agentstore.ErrNotFound)
		return
	}

	msg := "Job is now " + in.Status + "."
	if pay {
		msg = "Job closed; reward of " + j.Reward.StringFixed(2) + " credited."
		if a, err := h.Agents.GetByID(ctx, *j.AssignedTo); err == nil {
			h.Tabs.Invalidate(r.Context(), a.UserID.Hex(), tabs.Agent, tabs.Overview)
		}
		h.Tabs.InvalidateDashboard(r.Context(), tabs.Admin, tabs.Agents)
		h.Log.Info("job reward paid",
			zap.String("job_id", j.ID.Hex()),
			zap.String("agent_id", j.AssignedTo.Hex()),
			zap.String("reward", j.Reward.String()))
	}
	h.changed(r)
	apiresp.Success(w, msg, map[string]string{"status": in.Status})
}

// HandleDelete handles DELETE /api/jobs/{id} (admins).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	j, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if _, err := h.Jobs.Delete(ctx, j.ID); err != nil {
		shared.Fail(w, h.Log, "delete job", "Job", err, nil)
		return
	}
	h.changed(r)
	apiresp.Success(w, "Job deleted.", nil)
}

// self loads the signed-in agent.
func (h *Handler) self(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Agent, bool) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Error(w, http.StatusUnauthorized, "Please sign in to continue.")
		return models.Agent{}, false
	}
	a, err := h.Agents.GetByUserID(ctx, uid)
	if err != nil {
		shared.Fail(w, h.Log, "load agent", "Agent", err, agentstore.ErrNotFound)
		return models.Agent{}, false
	}
	return a, true
}

// HandleClaim handles POST /api/jobs/{id}/claim (agents).
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, ok := h.self(ctx, w, r)
	if !ok {
		return
	}
	if a.Status != status.Active {
		apiresp.Error(w, http.StatusConflict, "Only active agents can take jobs.")
		return
	}
	j, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Jobs.Assign(ctx, j.ID, a.ID); err != nil {
		shared.Fail(w, h.Log, "claim job", "Job", err, jobstore.ErrNotFound, jobstore.ErrNotOpen)
		return
	}
	h.Log.Info("job claimed", zap.String("job_id", j.ID.Hex()), zap.String("agent_id", a.ID.Hex()))
	h.changed(r)
	apiresp.Success(w, "The job is yours.", nil)
}

// HandleDone handles POST /api/jobs/{id}/done (the assigned agent).
func (h *Handler) HandleDone(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, ok := h.self(ctx, w, r)
	if !ok {
		return
	}
	j, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if j.AssignedTo == nil || *j.AssignedTo != a.ID {
		apiresp.Error(w, http.StatusForbidden, "This job is not assigned to you.")
		return
	}
	if err := h.Jobs.Move(ctx, j.ID, status.Assigned, status.Done); err != nil {
		shared.Fail(w, h.Log, "finish job", "Job", err, jobstore.ErrNotFound, jobstore.ErrStatusChanged)
		return
	}
	h.changed(r)
	apiresp.Success(w, "Marked as done. An admin will review it.", nil)
}
