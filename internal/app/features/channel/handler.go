// internal/app/features/channel/handler.go
package channel

import (
	"context"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	channelstore "github.com/dalemusser/channelhub/internal/app/store/channels"
	commentstore "github.com/dalemusser/channelhub/internal/app/store/comments"
	membershipstore "github.com/dalemusser/channelhub/internal/app/store/memberships"
	notestore "github.com/dalemusser/channelhub/internal/app/store/notes"
	poststore "github.com/dalemusser/channelhub/internal/app/store/posts"
	qapoststore "github.com/dalemusser/channelhub/internal/app/store/qaposts"
	videostore "github.com/dalemusser/channelhub/internal/app/store/videos"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/authz"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the teaching channel: a teacher authors posts, videos and
// notes in their one channel; subscribed members read, react, comment and
// ask questions.
type Handler struct {
	DB          *mongo.Database
	Channels    *channelstore.Store
	Posts       *poststore.Store
	Comments    *commentstore.Store
	QA          *qapoststore.Store
	Videos      *videostore.Store
	Notes       *notestore.Store
	Memberships *membershipstore.Store
	Tabs        shared.Invalidator
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, inv shared.Invalidator, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Channels:    channelstore.New(db),
		Posts:       poststore.New(db),
		Comments:    commentstore.New(db),
		QA:          qapoststore.New(db),
		Videos:      videostore.New(db),
		Notes:       notestore.New(db),
		Memberships: membershipstore.New(db),
		Tabs:        shared.OrNop(inv),
		Log:         logger,
	}
}

// changed refreshes the owning teacher's tabs and, when memberTabs is
// non-empty, the same content tabs of every active subscriber.
func (h *Handler) changed(r *http.Request, ch models.Channel, teacherTabs, memberTabs []string) {
	ctx := r.Context()
	if len(teacherTabs) > 0 {
		h.Tabs.Invalidate(ctx, ch.TeacherID.Hex(), tabs.TeacherChannel, teacherTabs...)
	}
	if len(memberTabs) == 0 {
		return
	}
	lctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	subs, err := h.Memberships.ListByChannel(lctx, ch.ID)
	if err != nil {
		h.Log.Warn("list subscribers for refresh", zap.String("channel_id", ch.ID.Hex()), zap.Error(err))
		return
	}
	for _, m := range subs {
		h.Tabs.Invalidate(ctx, m.UserID.Hex(), tabs.MemberChannel, memberTabs...)
	}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		apiresp.Error(w, http.StatusUnauthorized, "Please sign in to continue.")
		return primitive.NilObjectID, false
	}
	return uid, true
}

// mine loads the signed-in teacher's channel.
func (h *Handler) mine(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Channel, bool) {
	uid, ok := h.userID(w, r)
	if !ok {
		return models.Channel{}, false
	}
	ch, err := h.Channels.GetByTeacher(ctx, uid)
	if err != nil {
		shared.Fail(w, h.Log, "load own channel", "Channel", err, channelstore.ErrNotFound)
		return models.Channel{}, false
	}
	return ch, true
}

// reader is a caller allowed to read a channel's content.
type reader struct {
	channel models.Channel
	userID  primitive.ObjectID
	owner   bool
}

// access loads channelID and checks the caller owns it or is subscribed.
func (h *Handler) access(ctx context.Context, w http.ResponseWriter, r *http.Request, channelID primitive.ObjectID) (reader, bool) {
	uid, ok := h.userID(w, r)
	if !ok {
		return reader{}, false
	}
	ch, err := h.Channels.GetByID(ctx, channelID)
	if err == nil && !shared.InWorkspace(r, ch.WorkspaceID) {
		err = channelstore.ErrNotFound
	}
	if err != nil {
		shared.Fail(w, h.Log, "load channel", "Channel", err, channelstore.ErrNotFound)
		return reader{}, false
	}
	if ch.TeacherID == uid {
		return reader{channel: ch, userID: uid, owner: true}, true
	}
	sub, err := h.Memberships.IsSubscribed(ctx, ch.ID, uid)
	if err != nil {
		shared.Fail(w, h.Log, "check subscription", "Channel", err, nil)
		return reader{}, false
	}
	if !sub {
		apiresp.Error(w, http.StatusForbidden, "Subscribe to this channel first.")
		return reader{}, false
	}
	return reader{channel: ch, userID: uid}, true
}

type channelInput struct {
	Name        string `json:"name" validate:"notblank,max=80"`
	Subject     string `json:"subject" validate:"max=80"`
	Description string `json:"description" validate:"max=2000"`
}

type channelView struct {
	models.Channel
	Subscribers int64 `json:"subscribers"`
}

// ServeMine handles GET /api/channel (teachers).
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return
	}
	n, err := h.Memberships.CountByChannel(ctx, ch.ID)
	if err != nil {
		shared.Fail(w, h.Log, "count subscribers", "Channel", err, nil)
		return
	}
	apiresp.OK(w, channelView{Channel: ch, Subscribers: n})
}

// HandleCreate handles POST /api/channel. A teacher opens their channel.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in channelInput
	if !shared.Bind(w, r, &in) {
		return
	}
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, err := h.Channels.Create(ctx, models.Channel{
		WorkspaceID: authz.WorkspaceID(r),
		TeacherID:   uid,
		Name:        in.Name,
		Subject:     in.Subject,
		Description: in.Description,
	})
	if err != nil {
		shared.Fail(w, h.Log, "create channel", "Channel", err, nil, channelstore.ErrDuplicate)
		return
	}
	h.Log.Info("channel created", zap.String("channel_id", ch.ID.Hex()), zap.String("teacher_id", uid.Hex()))
	h.changed(r, ch, []string{tabs.Posts, tabs.QA, tabs.Videos, tabs.Notes, tabs.Subscribers}, nil)
	apiresp.Created(w, "Your channel is open.", ch)
}

// HandleUpdate handles PATCH /api/channel.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in channelInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Channels.UpdateDetails(ctx, ch.ID, channelstore.Update{
		Name:        in.Name,
		Subject:     in.Subject,
		Description: in.Description,
	}); err != nil {
		shared.Fail(w, h.Log, "update channel", "Channel", err, channelstore.ErrNotFound)
		return
	}
	// Channel names label every member row.
	h.changed(r, ch, nil, []string{tabs.Subscriptions, tabs.Feed, tabs.QA, tabs.Videos, tabs.Notes})
	apiresp.Success(w, "Channel updated.", nil)
}

type directoryEntry struct {
	models.Channel
	Subscribed bool `json:"subscribed"`
}

// ServeDirectory handles GET /api/channel/directory (members): the active
// channels of the caller's workspace with their subscription state.
func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.userID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	chans, err := h.Channels.ListActive(ctx, authz.WorkspaceID(r))
	if err != nil {
		shared.Fail(w, h.Log, "list channels", "Channel", err, nil)
		return
	}
	mine, err := h.Memberships.ChannelIDs(ctx, uid)
	if err != nil {
		shared.Fail(w, h.Log, "list subscriptions", "Channel", err, nil)
		return
	}
	subscribed := make(map[primitive.ObjectID]bool, len(mine))
	for _, id := range mine {
		subscribed[id] = true
	}
	out := make([]directoryEntry, 0, len(chans))
	for _, ch := range chans {
		out = append(out, directoryEntry{Channel: ch, Subscribed: subscribed[ch.ID]})
	}
	apiresp.OK(w, out)
}
