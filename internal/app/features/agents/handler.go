// internal/app/features/agents/handler.go
package agents

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	referralstore "github.com/dalemusser/channelhub/internal/app/store/referrals"
	userstore "github.com/dalemusser/channelhub/internal/app/store/users"
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

// DefaultCommission is credited to a referrer when their referral is paid.
var DefaultCommission = models.MoneyFromInt(5)

// Sessions is the part of the dashboard session registry the agent admin
// needs. dashsession.Registry satisfies it.
type Sessions interface {
	shared.Invalidator
	EndUser(userID string) int
}

type Handler struct {
	DB         *mongo.Database
	Users      *userstore.Store
	Agents     *agentstore.Store
	Referrals  *referralstore.Store
	Sessions   Sessions
	Commission models.Money
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessions Sessions, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Users:      userstore.New(db),
		Agents:     agentstore.New(db),
		Referrals:  referralstore.New(db),
		Sessions:   sessions,
		Commission: DefaultCommission,
		Log:        logger,
	}
}

// load reads the {id} agent, answering 404 for agents outside the
// caller's workspace.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Agent, bool) {
	id, ok := shared.ObjectID(w, r, "id", "agent")
	if !ok {
		return models.Agent{}, false
	}
	a, err := h.Agents.GetByID(ctx, id)
	if err == nil && !shared.InWorkspace(r, a.WorkspaceID) {
		err = agentstore.ErrNotFound
	}
	if err != nil {
		shared.Fail(w, h.Log, "load agent", "Agent", err, agentstore.ErrNotFound)
		return models.Agent{}, false
	}
	return a, true
}

// changed refreshes the admin tables and, when the agent is known, the
// agent's own overview.
func (h *Handler) changed(r *http.Request, a models.Agent, adminTabs ...string) {
	h.Sessions.InvalidateDashboard(r.Context(), tabs.Admin, adminTabs...)
	if !a.UserID.IsZero() {
		h.Sessions.Invalidate(r.Context(), a.UserID.Hex(), tabs.Agent, tabs.Overview)
	}
}

// ServeAgent handles GET /api/agents/{id}.
func (h *Handler) ServeAgent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	apiresp.OK(w, a)
}

type createInput struct {
	FullName     string `json:"full_name" validate:"notblank,max=120"`
	LoginID      string `json:"login_id" validate:"notblank,max=120"`
	Password     string `json:"password" validate:"required,min=8,max=200"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	Tier         string `json:"tier" validate:"omitempty,oneof=basic wholesale"`
	ReferralCode string `json:"referral_code" validate:"omitempty,alphanum,len=8"`
}

// HandleCreate handles POST /api/agents.
//
// The user, the agent record and, when a referral code is given, the
// referral are written together.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws := authz.WorkspaceID(r)
	var referrer *models.Agent
	if in.ReferralCode != "" {
		ref, err := h.Agents.GetByReferralCode(ctx, in.ReferralCode)
		if err == nil && !shared.InWorkspace(r, ref.WorkspaceID) {
			err = agentstore.ErrNotFound
		}
		if errors.Is(err, agentstore.ErrNotFound) {
			apiresp.Invalid(w, map[string]string{"referral_code": "referral_code does not match any agent"})
			return
		}
		if err != nil {
			shared.Fail(w, h.Log, "lookup referral code", "Agent", err, nil)
			return
		}
		referrer = &ref
	}

	var created models.Agent
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		u := models.User{FullName: in.FullName, LoginID: in.LoginID, Phone: in.Phone, Role: models.RoleAgent}
		if !ws.IsZero() {
			u.WorkspaceID = &ws
		}
		u, err := h.Users.Create(ctx, u, in.Password)
		if err != nil {
			return err
		}
		a := models.Agent{WorkspaceID: ws, UserID: u.ID, DisplayName: in.FullName, Phone: in.Phone, Tier: in.Tier}
		if referrer != nil {
			a.ReferredBy = &referrer.ID
		}
		if created, err = h.Agents.Create(ctx, a); err != nil {
			return err
		}
		if referrer == nil {
			return nil
		}
		_, err = h.Referrals.Create(ctx, models.Referral{
			WorkspaceID: ws,
			ReferrerID:  referrer.ID,
			ReferredID:  created.ID,
			Commission:  h.Commission,
		})
		return err
	})
	if err != nil {
		shared.Fail(w, h.Log, "create agent", "Agent", err, nil,
			userstore.ErrDuplicateLoginID, agentstore.ErrDuplicate, referralstore.ErrDuplicate)
		return
	}

	h.Log.Info("agent created",
		zap.String("agent_id", created.ID.Hex()),
		zap.String("login_id", in.LoginID))
	h.changed(r, models.Agent{}, tabs.Agents, tabs.Overview, tabs.Referrals)
	if referrer != nil {
		h.Sessions.Invalidate(r.Context(), referrer.UserID.Hex(), tabs.Agent, tabs.Referrals, tabs.Overview)
	}
	apiresp.Created(w, "Agent "+created.DisplayName+" created.", created)
}

type updateInput struct {
	DisplayName string `json:"display_name" validate:"notblank,max=120"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
	Tier        string `json:"tier" validate:"required,oneof=basic wholesale"`
}

// HandleUpdate handles PATCH /api/agents/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in updateInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Agents.UpdateProfile(ctx, a.ID, agentstore.Update{
		DisplayName: in.DisplayName,
		Phone:       in.Phone,
		Tier:        in.Tier,
	}); err != nil {
		shared.Fail(w, h.Log, "update agent", "Agent", err, agentstore.ErrNotFound)
		return
	}
	h.changed(r, a, tabs.Agents)
	apiresp.Success(w, "Agent updated.", nil)
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=pending active suspended"`
}

// HandleStatus handles POST /api/agents/{id}/status.
//
// Suspending an agent disables their sign-in and ends their dashboard
// sessions; reactivating restores sign-in.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	userStatus := status.Active
	if in.Status == status.Suspended {
		userStatus = status.Disabled
	}
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := h.Agents.SetStatus(ctx, a.ID, in.Status); err != nil {
			return err
		}
		err := h.Users.SetStatus(ctx, a.UserID, userStatus)
		if errors.Is(err, userstore.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		shared.Fail(w, h.Log, "set agent status", "Agent", err, agentstore.ErrNotFound)
		return
	}

	if in.Status == status.Suspended {
		n := h.Sessions.EndUser(a.UserID.Hex())
		h.Log.Info("agent suspended",
			zap.String("agent_id", a.ID.Hex()),
			zap.Int("sessions_ended", n))
	}
	h.changed(r, a, tabs.Agents, tabs.Overview)
	apiresp.Success(w, "Agent is now "+in.Status+".", map[string]string{"status": in.Status})
}

type creditInput struct {
	Amount string `json:"amount" validate:"required,money"`
}

// HandleCredit handles POST /api/agents/{id}/credit.
func (h *Handler) HandleCredit(w http.ResponseWriter, r *http.Request) {
	var in creditInput
	if !shared.Bind(w, r, &in) {
		return
	}
	amount, _ := models.NewMoney(in.Amount)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Agents.Credit(ctx, a.ID, amount); err != nil {
		shared.Fail(w, h.Log, "credit agent", "Agent", err, agentstore.ErrNotFound)
		return
	}
	h.Log.Info("agent credited",
		zap.String("agent_id", a.ID.Hex()),
		zap.String("amount", amount.String()))
	h.changed(r, a, tabs.Agents)
	apiresp.Success(w, "Credited "+amount.StringFixed(2)+" to "+a.DisplayName+".", nil)
}

// HandleDelete handles DELETE /api/agents/{id}. The backing user goes with
// the agent record.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Agents.Delete(ctx, a.ID); err != nil {
			return err
		}
		_, err := h.Users.Delete(ctx, a.UserID)
		return err
	})
	if err != nil {
		shared.Fail(w, h.Log, "delete agent", "Agent", err, agentstore.ErrNotFound)
		return
	}
	h.Sessions.EndUser(a.UserID.Hex())
	h.Log.Info("agent deleted", zap.String("agent_id", a.ID.Hex()))
	h.changed(r, models.Agent{}, tabs.Agents, tabs.Overview, tabs.Referrals)
	apiresp.Success(w, "Agent deleted.", nil)
}
