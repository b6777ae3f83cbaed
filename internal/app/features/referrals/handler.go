// internal/app/features/referrals/handler.go
package referrals

import (
	"context"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	referralstore "github.com/dalemusser/channelhub/internal/app/store/referrals"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/app/system/txn"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB        *mongo.Database
	Referrals *referralstore.Store
	Agents    *agentstore.Store
	Tabs      shared.Invalidator
	Log       *zap.Logger
}

func NewHandler(db *mongo.Database, inv shared.Invalidator, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Referrals: referralstore.New(db),
		Agents:    agentstore.New(db),
		Tabs:      shared.OrNop(inv),
		Log:       logger,
	}
}

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Referral, bool) {
	id, ok := shared.ObjectID(w, r, "id", "referral")
	if !ok {
		return models.Referral{}, false
	}
	ref, err := h.Referrals.GetByID(ctx, id)
	if err == nil && !shared.InWorkspace(r, ref.WorkspaceID) {
		err = referralstore.ErrNotFound
	}
	if err != nil {
		shared.Fail(w, h.Log, "load referral", "Referral", err, referralstore.ErrNotFound)
		return models.Referral{}, false
	}
	return ref, true
}

// changed refreshes the admin tables and the referrer's own tabs.
func (h *Handler) changed(ctx context.Context, r *http.Request, ref models.Referral) {
	h.Tabs.InvalidateDashboard(r.Context(), tabs.Admin, tabs.Referrals, tabs.Overview, tabs.Agents)
	if a, err := h.Agents.GetByID(ctx, ref.ReferrerID); err == nil {
		h.Tabs.Invalidate(r.Context(), a.UserID.Hex(), tabs.Agent, tabs.Referrals, tabs.Overview)
	}
}

type statusInput struct {
	Status string `json:"status" validate:"required,oneof=pending active paid"`
}

// HandleStatus handles POST /api/referrals/{id}/status.
//
// Paying a referral credits its commission to the referrer; a referral is
// paid at most once.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var in statusInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	ref, ok := h.load(ctx, w, r)
	if !ok {
		return
	}

	var err error
	switch {
	case in.Status == status.Paid:
		err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
			if err := h.Referrals.MarkPaid(ctx, ref.ID); err != nil {
				return err
			}
			if !ref.Commission.Positive() {
				return nil
			}
			return h.Agents.Credit(ctx, ref.ReferrerID, ref.Commission)
		})
	case ref.Status == status.Paid:
		err = referralstore.ErrAlreadyPaid
	default:
		err = h.Referrals.SetStatus(ctx, ref.ID, in.Status)
	}
	if err != nil {
		shared.Fail(w, h.Log, "set referral status", "Referral", err, referralstore.ErrNotFound,
			referralstore.ErrAlreadyPaid, agentstore.ErrNotFound)
		return
	}

	h.Log.Info("referral status changed",
		zap.String("referral_id", ref.ID.Hex()),
		zap.String("status", in.Status))
	h.changed(ctx, r, ref)
	msg := "Referral marked " + in.Status + "."
	if in.Status == status.Paid && ref.Commission.Positive() {
		msg = "Commission of " + ref.Commission.StringFixed(2) + " paid."
	}
	apiresp.Success(w, msg, map[string]string{"status": in.Status})
}

// HandleDelete handles DELETE /api/referrals/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ref, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if _, err := h.Referrals.Delete(ctx, ref.ID); err != nil {
		shared.Fail(w, h.Log, "delete referral", "Referral", err, nil)
		return
	}
	h.changed(ctx, r, ref)
	apiresp.Success(w, "Referral deleted.", nil)
}
