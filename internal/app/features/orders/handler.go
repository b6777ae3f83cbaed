// internal/app/features/orders/handler.go
package orders

import (
	"context"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	orderstore "github.com/dalemusser/channelhub/internal/app/store/orders"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Orders *orderstore.Store
	Agents *agentstore.Store
	Tabs   shared.Invalidator
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, inv shared.Invalidator, logger *zap.Logger) *Handler {
	return &Handler{
		Orders: orderstore.New(db),
		Agents: agentstore.New(db),
		Tabs:   shared.OrNop(inv),
		Log:    logger,
	}
}

// changed refreshes the order tables of the admins and of the agent who
// owns the order.
func (h *Handler) changed(r *http.Request, agentUserID primitive.ObjectID) {
	h.Tabs.InvalidateDashboard(r.Context(), tabs.Admin, tabs.Orders, tabs.Overview)
	if !agentUserID.IsZero() {
		h.Tabs.Invalidate(r.Context(), agentUserID.Hex(), tabs.Agent, tabs.Orders, tabs.Overview)
	}
}

type createInput struct {
	AgentID   string `json:"agent_id" validate:"omitempty,len=24,hexadecimal"`
	Network   string `json:"network" validate:"required,oneof=mtn telecel airteltigo"`
	Bundle    string `json:"bundle" validate:"notblank,max=40"`
	Recipient string `json:"recipient" validate:"required,phone"`
	Amount    string `json:"amount" validate:"required,money"`
}

// HandleCreate handles POST /api/orders. Agents order for themselves;
// admins name the agent. Wholesale agents' orders are marked wholesale.
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
	if a.Status != status.Active {
		apiresp.Error(w, http.StatusConflict, "Only active agents can place orders.")
		return
	}

	o, err := h.Orders.Create(ctx, models.Order{
		WorkspaceID: a.WorkspaceID,
		AgentID:     a.ID,
		Network:     in.Network,
		Bundle:      in.Bundle,
		Recipient:   in.Recipient,
		Amount:      amount,
		Wholesale:   a.Tier == agentstore.TierWholesale,
	})
	if err != nil {
		shared.Fail(w, h.Log, "create order", "Order", err, nil, orderstore.ErrDuplicateReference)
		return
	}
	h.Log.Info("order placed",
		zap.String("order_id", o.ID.Hex()),
		zap.String("agent_id", a.ID.Hex()),
		zap.String("amount", amount.String()))
	h.changed(r, a.UserID)
	apiresp.Created(w, "Order "+o.Reference+" placed.", o)
}

// load reads the {id} order and its agent, answering 404 for orders the
// caller may not see.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Order, models.Agent, bool) {
	id, ok := shared.ObjectID(w, r, "id", "order")
	if !ok {
		return models.Order{}, models.Agent{}, false
	}
	o, err := h.Orders.GetByID(ctx, id)
	if err != nil {
		shared.Fail(w, h.Log, "load order", "Order", err, orderstore.ErrNotFound)
		return models.Order{}, models.Agent{}, false
	}
	a, err := h.Agents.GetByID(ctx, o.AgentID)
	if err != nil {
		// The agent may be gone; admins still manage the order.
		a = models.Agent{ID: o.AgentID, WorkspaceID: o.WorkspaceID}
	}
	if !shared.OwnsOrAdmin(r, a) {
		apiresp.NotFound(w, "Order")
		return models.Order{}, models.Agent{}, false
	}
	return o, a, true
}

// ServeOrder handles GET /api/orders/{id}.
func (h *Handler) ServeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	o, _, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	apiresp.OK(w, o)
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=pending processing completed failed"`
}

// HandleStatus handles POST /api/orders/{id}/status (admins).
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	o, a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	o, err := h.Orders.SetStatus(ctx, o.ID, in.Status)
	if err != nil {
		shared.Fail(w, h.Log, "set order status", "Order", err, orderstore.ErrNotFound, orderstore.ErrBadTransition)
		return
	}
	h.Log.Info("order status changed",
		zap.String("order_id", o.ID.Hex()),
		zap.String("status", o.Status))
	h.changed(r, a.UserID)
	apiresp.Success(w, "Order "+o.Reference+" is now "+o.Status+".", o)
}

// HandleDelete handles DELETE /api/orders/{id} (admins).
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	o, a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	n, err := h.Orders.Delete(ctx, o.ID)
	if err != nil {
		shared.Fail(w, h.Log, "delete order", "Order", err, nil)
		return
	}
	if n == 0 {
		apiresp.NotFound(w, "Order")
		return
	}
	h.changed(r, a.UserID)
	apiresp.Success(w, "Order deleted.", nil)
}
