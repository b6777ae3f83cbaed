// internal/app/features/channel/subscriptions.go
package channel

import (
	"context"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	channelstore "github.com/dalemusser/channelhub/internal/app/store/channels"
	membershipstore "github.com/dalemusser/channelhub/internal/app/store/memberships"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/status"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.uber.org/zap"
)

// Every member tab reads from the subscribed channel set.
var subscriberTabs = []string{tabs.Feed, tabs.QA, tabs.Videos, tabs.Notes, tabs.Subscriptions}

type subscribeInput struct {
	Plan string `json:"plan" validate:"omitempty,oneof=free paid"`
}

func (h *Handler) loadChannel(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Channel, bool) {
	id, ok := shared.ObjectID(w, r, "id", "channel")
	if !ok {
		return models.Channel{}, false
	}
	ch, err := h.Channels.GetByID(ctx, id)
	if err == nil && !shared.InWorkspace(r, ch.WorkspaceID) {
		err = channelstore.ErrNotFound
	}
	if err != nil {
		shared.Fail(w, h.Log, "load channel", "Channel", err, channelstore.ErrNotFound)
		return models.Channel{}, false
	}
	return ch, true
}

// HandleSubscribe handles POST /api/channel/channels/{id}/subscribe
// (members). Subscribing twice keeps one membership.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var in subscribeInput
	if r.ContentLength > 0 && !shared.Bind(w, r, &in) {
		return
	}
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, ok := h.loadChannel(ctx, w, r)
	if !ok {
		return
	}
	if ch.Status != status.Active {
		apiresp.Error(w, http.StatusConflict, "This channel is not taking subscribers.")
		return
	}
	m, err := h.Memberships.Subscribe(ctx, ch.ID, uid, in.Plan)
	if err != nil {
		shared.Fail(w, h.Log, "subscribe", "Channel", err, nil)
		return
	}
	h.Log.Info("channel subscribed",
		zap.String("channel_id", ch.ID.Hex()),
		zap.String("user_id", uid.Hex()),
		zap.String("plan", m.Plan))
	h.Tabs.Invalidate(r.Context(), uid.Hex(), tabs.MemberChannel, subscriberTabs...)
	h.changed(r, ch, []string{tabs.Subscribers}, nil)
	apiresp.Success(w, "Subscribed to "+ch.Name+".", m)
}

// HandleUnsubscribe handles DELETE /api/channel/channels/{id}/subscribe
// (members).
func (h *Handler) HandleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, ok := h.loadChannel(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Memberships.Unsubscribe(ctx, ch.ID, uid); err != nil {
		shared.Fail(w, h.Log, "unsubscribe", "Subscription", err, membershipstore.ErrNotSubscribed)
		return
	}
	h.Tabs.Invalidate(r.Context(), uid.Hex(), tabs.MemberChannel, subscriberTabs...)
	h.changed(r, ch, []string{tabs.Subscribers}, nil)
	apiresp.Success(w, "Unsubscribed from "+ch.Name+".", nil)
}
