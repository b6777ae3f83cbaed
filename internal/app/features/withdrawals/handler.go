// internal/app/features/withdrawals/handler.go
package withdrawals

import (
	"context"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	withdrawalstore "github.com/dalemusser/channelhub/internal/app/store/withdrawals"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/app/system/txn"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Balance moves with the status:
//
//	pending  -> approved  debit the agent
//	approved -> rejected  credit it back
//	approved -> paid      no balance change
type Handler struct {
	DB          *mongo.Database
	Withdrawals *withdrawalstore.Store
	Agents      *agentstore.Store
	Tabs        shared.Invalidator
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, inv shared.Invalidator, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Withdrawals: withdrawalstore.New(db),
		Agents:      agentstore.New(db),
		Tabs:        shared.OrNop(inv),
		Log:         logger,
	}
}

func (h *Handler) changed(r *http.Request, a models.Agent) {
	h.Tabs.InvalidateDashboard(r.Context(), tabs.Admin, tabs.Withdrawals, tabs.Overview, tabs.Agents)
	if !a.UserID.IsZero() {
		h.Tabs.Invalidate(r.Context(), a.UserID.Hex(), tabs.Agent, tabs.Withdrawals, tabs.Overview)
	}
}

type createInput struct {
	AgentID string `json:"agent_id" validate:"omitempty,len=24,hexadecimal"`
	Amount  string `json:"amount" validate:"required,money"`
	Method  string `json:"method" validate:"required,oneof=momo bank"`
	Account string `json:"account" validate:"notblank,max=60"`
}

// HandleCreate handles POST /api/withdrawals. The balance is checked here
// and debited on approval.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !shared.Bind(w, r, &in) {
		return
	}
	amount, _ := models.NewMoney(in.Amount)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, ok := shared.ActingAgent(ctx, w, r, h.Agents, h.Log, in.AgentID)
	if !ok {
		return
	}
	if a.Balance.LessThan(amount.Decimal) {
		apiresp.Error(w, http.StatusConflict, "Your balance is "+a.Balance.StringFixed(2)+"; request a smaller amount.")
		return
	}

	wd, err := h.Withdrawals.Create(ctx, models.Withdrawal{
		WorkspaceID: a.WorkspaceID,
		AgentID:     a.ID,
		Amount:      amount,
		Method:      in.Method,
		Account:     in.Account,
	})
	if err != nil {
		shared.Fail(w, h.Log, "create withdrawal", "Withdrawal", err, nil)
		return
	}
	h.Log.Info("withdrawal requested",
		zap.String("withdrawal_id", wd.ID.Hex()),
		zap.String("agent_id", a.ID.Hex()),
		zap.String("amount", amount.String()))
	h.changed(r, a)
	apiresp.Created(w, "Withdrawal of "+amount.StringFixed(2)+" requested.", wd)
}

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Withdrawal, models.Agent, bool) {
	id, ok := shared.ObjectID(w, r, "id", "withdrawal")
	if !ok {
		return models.Withdrawal{}, models.Agent{}, false
	}
	wd, err := h.Withdrawals.GetByID(ctx, id)
	if err != nil {
		shared.Fail(w, h.Log, "load withdrawal", "Withdrawal", err, withdrawalstore.ErrNotFound)
		return models.Withdrawal{}, models.Agent{}, false
	}
	a, err := h.Agents.GetByID(ctx, wd.AgentID)
	if err != nil {
		shared.Fail(w, h.Log, "load withdrawal agent", "Agent", err, agentstore.ErrNotFound)
		return models.Withdrawal{}, models.Agent{}, false
	}
	if !shared.OwnsOrAdmin(r, a) {
		apiresp.NotFound(w, "Withdrawal")
		return models.Withdrawal{}, models.Agent{}, false
	}
	return wd, a, true
}

type noteInput struct {
	Note string `json:"note" validate:"max=300"`
}

// transition applies to, moving the balance as the status table says.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to string) {
	var in noteInput
	if r.ContentLength > 0 && !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	wd, a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	var out models.Withdrawal
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		switch {
		case to == status.Approved:
			if err := h.Agents.Debit(ctx, a.ID, wd.Amount); err != nil {
				return err
			}
		case to == status.Rejected && wd.Status == status.Approved:
			if err := h.Agents.Credit(ctx, a.ID, wd.Amount); err != nil {
				return err
			}
		}
		var err error
		out, err = h.Withdrawals.Transition(ctx, wd, to, in.Note)
		return err
	})
	if err != nil {
		shared.Fail(w, h.Log, "withdrawal "+to, "Withdrawal", err, withdrawalstore.ErrNotFound,
			withdrawalstore.ErrBadTransition, agentstore.ErrInsufficientBalance)
		return
	}

	h.Log.Info("withdrawal status changed",
		zap.String("withdrawal_id", wd.ID.Hex()),
		zap.String("from", wd.Status),
		zap.String("to", to))
	h.changed(r, a)
	apiresp.Success(w, "Withdrawal "+to+".", out)
}

// HandleApprove handles POST /api/withdrawals/{id}/approve (admins).
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, status.Approved)
}

// HandleReject handles POST /api/withdrawals/{id}/reject (admins).
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, status.Rejected)
}

// HandlePaid handles POST /api/withdrawals/{id}/paid (admins).
func (h *Handler) HandlePaid(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, status.Paid)
}

// HandleCancel handles POST /api/withdrawals/{id}/cancel. A request can be
// cancelled only while pending, before any balance has moved.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	wd, a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if wd.Status != status.Pending {
		apiresp.Error(w, http.StatusConflict, "Only pending requests can be cancelled.")
		return
	}
	out, err := h.Withdrawals.Transition(ctx, wd, status.Rejected, "Cancelled by agent")
	if err != nil {
		shared.Fail(w, h.Log, "cancel withdrawal", "Withdrawal", err, withdrawalstore.ErrNotFound, withdrawalstore.ErrBadTransition)
		return
	}
	h.changed(r, a)
	apiresp.Success(w, "Withdrawal cancelled.", out)
}
