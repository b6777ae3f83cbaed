package dashboards

import (
	"context"
	"errors"
	"fmt"

	agentstore "github.com/dalemusser/channelhub/internal/app/store/agents"
	channelstore "github.com/dalemusser/channelhub/internal/app/store/channels"
	jobstore "github.com/dalemusser/channelhub/internal/app/store/jobs"
	membershipstore "github.com/dalemusser/channelhub/internal/app/store/memberships"
	metricsstore "github.com/dalemusser/channelhub/internal/app/store/metrics"
	notestore "github.com/dalemusser/channelhub/internal/app/store/notes"
	orderstore "github.com/dalemusser/channelhub/internal/app/store/orders"
	poststore "github.com/dalemusser/channelhub/internal/app/store/posts"
	qapoststore "github.com/dalemusser/channelhub/internal/app/store/qaposts"
	referralstore "github.com/dalemusser/channelhub/internal/app/store/referrals"
	userstore "github.com/dalemusser/channelhub/internal/app/store/users"
	videostore "github.com/dalemusser/channelhub/internal/app/store/videos"
	withdrawalstore "github.com/dalemusser/channelhub/internal/app/store/withdrawals"
	"github.com/dalemusser/channelhub/internal/app/system/contentview"
	"github.com/dalemusser/channelhub/internal/app/system/tabload"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Fetchers binds every dashboard tab to the store that backs it. Each
// fetcher makes one attempt and returns its error to the tab controller.
type Fetchers struct {
	Users       *userstore.Store
	Agents      *agentstore.Store
	Referrals   *referralstore.Store
	Orders      *orderstore.Store
	Withdrawals *withdrawalstore.Store
	Jobs        *jobstore.Store
	Channels    *channelstore.Store
	Memberships *membershipstore.Store
	Posts       *poststore.Store
	QA          *qapoststore.Store
	Videos      *videostore.Store
	Notes       *notestore.Store
	Stats       *metricsstore.Service
	Log         *zap.Logger
}

// NewFetchers wires the stores on db.
func NewFetchers(db *mongo.Database, stats *metricsstore.Service, logger *zap.Logger) *Fetchers {
	return &Fetchers{
		Users:       userstore.New(db),
		Agents:      agentstore.New(db),
		Referrals:   referralstore.New(db),
		Orders:      orderstore.New(db),
		Withdrawals: withdrawalstore.New(db),
		Jobs:        jobstore.New(db),
		Channels:    channelstore.New(db),
		Memberships: membershipstore.New(db),
		Posts:       poststore.New(db),
		QA:          qapoststore.New(db),
		Videos:      videostore.New(db),
		Notes:       notestore.New(db),
		Stats:       stats,
		Log:         logger,
	}
}

// errBadScope means the session scope carries an unusable id.
var errBadScope = errors.New("invalid session scope")

// Build returns the tabs of dashboard in configuration order, each bound
// to its fetcher. It satisfies dashsession.Builder.
func (f *Fetchers) Build(dashboard string, sc tabload.Scope) ([]tabload.Tab, bool) {
	d, ok := tabs.Lookup(dashboard)
	if !ok || !d.Allows(sc.Role) {
		return nil, false
	}
	var bound map[string]tabload.Fetcher
	switch dashboard {
	case tabs.Admin:
		bound = map[string]tabload.Fetcher{
			tabs.Overview:    f.adminOverview,
			tabs.Agents:      f.adminAgents,
			tabs.Orders:      f.adminOrders,
			tabs.Withdrawals: f.adminWithdrawals,
			tabs.Referrals:   f.adminReferrals,
			tabs.Jobs:        f.adminJobs,
		}
	case tabs.Agent:
		bound = map[string]tabload.Fetcher{
			tabs.Overview:    f.agentOverview,
			tabs.Referrals:   f.agentReferrals,
			tabs.Orders:      f.agentOrders,
			tabs.Withdrawals: f.agentWithdrawals,
			tabs.Jobs:        f.agentJobs,
		}
	case tabs.TeacherChannel:
		bound = map[string]tabload.Fetcher{
			tabs.Posts:       f.teacherPosts,
			tabs.QA:          f.teacherQA,
			tabs.Videos:      f.teacherVideos,
			tabs.Notes:       f.teacherNotes,
			tabs.Subscribers: f.teacherSubscribers,
		}
	case tabs.MemberChannel:
		bound = map[string]tabload.Fetcher{
			tabs.Feed:          f.memberFeed,
			tabs.QA:            f.memberQA,
			tabs.Videos:        f.memberVideos,
			tabs.Notes:         f.memberNotes,
			tabs.Subscriptions: f.memberSubscriptions,
		}
	default:
		return nil, false
	}

	out := make([]tabload.Tab, 0, len(d.Tabs))
	for _, t := range d.Tabs {
		if fn, ok := bound[t.ID]; ok {
			out = append(out, tabload.Tab{ID: t.ID, Fetch: fn})
		}
	}
	return out, true
}

func userID(sc tabload.Scope) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(sc.UserID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: user %q", errBadScope, sc.UserID)
	}
	return id, nil
}

// workspaceID returns the scope's workspace. A missing workspace (a
// superadmin) is NilObjectID, which the stores treat as "every workspace".
func workspaceID(sc tabload.Scope) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(sc.WorkspaceID)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

/*─────────────────────────────────────────────────────────────────────────────*
| Admin                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *Fetchers) adminOverview(ctx context.Context, sc tabload.Scope) (any, error) {
	return f.Stats.AdminOverview(ctx, workspaceID(sc)), nil
}

func (f *Fetchers) adminAgents(ctx context.Context, sc tabload.Scope) (any, error) {
	list, err := f.Agents.List(ctx, agentstore.ListFilter{WorkspaceID: workspaceID(sc)})
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	out := make([]agentRow, 0, len(list))
	for _, a := range list {
		out = append(out, agentRow{Agent: a})
	}
	return agentRows(out), nil
}

// agentNames maps agent ids to display names for the workspace.
func (f *Fetchers) agentNames(ctx context.Context, ws primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	list, err := f.Agents.List(ctx, agentstore.ListFilter{WorkspaceID: ws})
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(list))
	for _, a := range list {
		names[a.ID] = a.DisplayName
	}
	return names, nil
}

func (f *Fetchers) adminOrders(ctx context.Context, sc tabload.Scope) (any, error) {
	ws := workspaceID(sc)
	return f.orders(ctx, orderstore.ListFilter{WorkspaceID: ws}, func(ctx context.Context) (map[primitive.ObjectID]string, error) {
		return f.agentNames(ctx, ws)
	})
}

func (f *Fetchers) orders(ctx context.Context, filter orderstore.ListFilter, names func(context.Context) (map[primitive.ObjectID]string, error)) (any, error) {
	list, err := f.Orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	byID, err := names(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]orderRow, 0, len(list))
	for _, o := range list {
		out = append(out, orderRow{Order: o, AgentName: byID[o.AgentID]})
	}
	return orderRows(out), nil
}

func (f *Fetchers) adminWithdrawals(ctx context.Context, sc tabload.Scope) (any, error) {
	ws := workspaceID(sc)
	return f.withdrawals(ctx, withdrawalstore.ListFilter{WorkspaceID: ws}, func(ctx context.Context) (map[primitive.ObjectID]string, error) {
		return f.agentNames(ctx, ws)
	})
}

func (f *Fetchers) withdrawals(ctx context.Context, filter withdrawalstore.ListFilter, names func(context.Context) (map[primitive.ObjectID]string, error)) (any, error) {
	list, err := f.Withdrawals.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	byID, err := names(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]withdrawalRow, 0, len(list))
	for _, w := range list {
		out = append(out, withdrawalRow{Withdrawal: w, AgentName: byID[w.AgentID]})
	}
	return withdrawalRows(out), nil
}

func (f *Fetchers) adminReferrals(ctx context.Context, sc tabload.Scope) (any, error) {
	return f.referrals(ctx, referralstore.ListFilter{WorkspaceID: workspaceID(sc)}, workspaceID(sc))
}

func (f *Fetchers) referrals(ctx context.Context, filter referralstore.ListFilter, ws primitive.ObjectID) (any, error) {
	list, err := f.Referrals.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	byID, err := f.agentNames(ctx, ws)
	if err != nil {
		return nil, err
	}
	out := make([]referralRow, 0, len(list))
	for _, r := range list {
		out = append(out, referralRow{
			Referral:     r,
			ReferrerName: byID[r.ReferrerID],
			ReferredName: byID[r.ReferredID],
		})
	}
	return referralRows(out), nil
}

func (f *Fetchers) adminJobs(ctx context.Context, sc tabload.Scope) (any, error) {
	ws := workspaceID(sc)
	return f.jobs(ctx, jobstore.ListFilter{WorkspaceID: ws}, ws)
}

func (f *Fetchers) jobs(ctx context.Context, filter jobstore.ListFilter, ws primitive.ObjectID) (any, error) {
	list, err := f.Jobs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	byID, err := f.agentNames(ctx, ws)
	if err != nil {
		return nil, err
	}
	out := make([]jobRow, 0, len(list))
	for _, j := range list {
		row := jobRow{Job: j}
		if j.AssignedTo != nil {
			row.AssigneeName = byID[*j.AssignedTo]
		}
		out = append(out, row)
	}
	return jobRows(out), nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Agent                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// self resolves the agent record behind the signed-in user.
func (f *Fetchers) self(ctx context.Context, sc tabload.Scope) (models.Agent, error) {
	uid, err := userID(sc)
	if err != nil {
		return models.Agent{}, err
	}
	a, err := f.Agents.GetByUserID(ctx, uid)
	if err != nil {
		return models.Agent{}, fmt.Errorf("load agent for user %s: %w", sc.UserID, err)
	}
	return a, nil
}

func selfName(a models.Agent) func(context.Context) (map[primitive.ObjectID]string, error) {
	return func(context.Context) (map[primitive.ObjectID]string, error) {
		return map[primitive.ObjectID]string{a.ID: a.DisplayName}, nil
	}
}

func (f *Fetchers) agentOverview(ctx context.Context, sc tabload.Scope) (any, error) {
	a, err := f.self(ctx, sc)
	if err != nil {
		return nil, err
	}
	return f.Stats.AgentOverview(ctx, a.ID), nil
}

func (f *Fetchers) agentReferrals(ctx context.Context, sc tabload.Scope) (any, error) {
	a, err := f.self(ctx, sc)
	if err != nil {
		return nil, err
	}
	return f.referrals(ctx, referralstore.ListFilter{ReferrerID: a.ID}, a.WorkspaceID)
}

func (f *Fetchers) agentOrders(ctx context.Context, sc tabload.Scope) (any, error) {
	a, err := f.self(ctx, sc)
	if err != nil {
		return nil, err
	}
	return f.orders(ctx, orderstore.ListFilter{AgentID: a.ID}, selfName(a))
}

func (f *Fetchers) agentWithdrawals(ctx context.Context, sc tabload.Scope) (any, error) {
	a, err := f.self(ctx, sc)
	if err != nil {
		return nil, err
	}
	return f.withdrawals(ctx, withdrawalstore.ListFilter{AgentID: a.ID}, selfName(a))
}

func (f *Fetchers) agentJobs(ctx context.Context, sc tabload.Scope) (any, error) {
	a, err := f.self(ctx, sc)
	if err != nil {
		return nil, err
	}
	return f.jobs(ctx, jobstore.ListFilter{WorkspaceID: a.WorkspaceID, OpenOrAssignedTo: a.ID}, a.WorkspaceID)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Channels                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// audience is the set of channels a fetch covers, with their names.
type audience struct {
	viewer primitive.ObjectID
	ids    []primitive.ObjectID
	names  map[primitive.ObjectID]string
}

// teacherAudience is the teacher's own channel. A teacher who has not
// created a channel yet gets an empty audience and therefore empty tabs.
func (f *Fetchers) teacherAudience(ctx context.Context, sc tabload.Scope) (audience, error) {
	uid, err := userID(sc)
	if err != nil {
		return audience{}, err
	}
	ch, err := f.Channels.GetByTeacher(ctx, uid)
	if errors.Is(err, channelstore.ErrNotFound) {
		return audience{viewer: uid, names: map[primitive.ObjectID]string{}}, nil
	}
	if err != nil {
		return audience{}, fmt.Errorf("load channel: %w", err)
	}
	return audience{
		viewer: uid,
		ids:    []primitive.ObjectID{ch.ID},
		names:  map[primitive.ObjectID]string{ch.ID: ch.Name},
	}, nil
}

// memberAudience is every channel the member is subscribed to.
func (f *Fetchers) memberAudience(ctx context.Context, sc tabload.Scope) (audience, error) {
	uid, err := userID(sc)
	if err != nil {
		return audience{}, err
	}
	ids, err := f.Memberships.ChannelIDs(ctx, uid)
	if err != nil {
		return audience{}, fmt.Errorf("list subscriptions: %w", err)
	}
	chans, err := f.Channels.ListByIDs(ctx, ids)
	if err != nil {
		return audience{}, fmt.Errorf("list channels: %w", err)
	}
	names := make(map[primitive.ObjectID]string, len(chans))
	for _, c := range chans {
		names[c.ID] = c.Name
	}
	return audience{viewer: uid, ids: ids, names: names}, nil
}

func (f *Fetchers) posts(ctx context.Context, aud audience) (any, error) {
	list, err := f.Posts.ListByChannels(ctx, aud.ids)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := make([]contentview.Post, 0, len(list))
	for _, p := range list {
		out = append(out, contentview.NewPost(p, aud.names[p.ChannelID], aud.viewer))
	}
	return postRows(out), nil
}

func (f *Fetchers) qa(ctx context.Context, aud audience) (any, error) {
	list, err := f.QA.ListByChannels(ctx, aud.ids)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]contentview.QA, 0, len(list))
	for _, q := range list {
		out = append(out, contentview.NewQA(q, aud.names[q.ChannelID]))
	}
	return qaRows(out), nil
}

func (f *Fetchers) videos(ctx context.Context, aud audience) (any, error) {
	list, err := f.Videos.ListByChannels(ctx, aud.ids)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	out := make([]contentview.Video, 0, len(list))
	for _, v := range list {
		out = append(out, contentview.NewVideo(v, aud.names[v.ChannelID]))
	}
	return videoRows(out), nil
}

func (f *Fetchers) notes(ctx context.Context, aud audience) (any, error) {
	list, err := f.Notes.ListByChannels(ctx, aud.ids)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	out := make([]contentview.Note, 0, len(list))
	for _, n := range list {
		out = append(out, contentview.NewNote(n, aud.names[n.ChannelID]))
	}
	return noteRows(out), nil
}

// withAudience adapts a channel fetch to a tab fetcher.
func withAudience(resolve func(context.Context, tabload.Scope) (audience, error), fetch func(context.Context, audience) (any, error)) tabload.Fetcher {
	return func(ctx context.Context, sc tabload.Scope) (any, error) {
		aud, err := resolve(ctx, sc)
		if err != nil {
			return nil, err
		}
		return fetch(ctx, aud)
	}
}

func (f *Fetchers) teacherPosts(ctx context.Context, sc tabload.Scope) (any, error) {
	return withAudience(f.teacherAudience, f.posts)(ctx, sc)
}

func (f *Fetchers) teacherQA(ctx context.Context, sc tabload.Scope) (any, error) {
	return withAudience(f.teacherAudience, f.qa)(ctx, sc)
}

func (f *Fetchers) teacherVideos(ctx context.Context, sc tabload.Scope) (any, error) {
	return withAudience(f.teacherAudience, f.videos)(ctx, sc)
}

func (f *Fetchers) teacherNotes(ctx context.Context, sc tabload.Scope) (any, error) {
	return withAudience(f.teacherAudience, f.notes)(ctx, sc)
}

func (f *Fetchers) teacherSubscribers(ctx context.Context, sc tabload.Scope) (any, error) {
	aud, err := f.teacherAudience(ctx, sc)
	if err != nil {
		return nil, err
	}
	if len(aud.ids) == 0 {
		return subscriberRows([]subscriberRow{}), nil
	}
	list, err := f.Memberships.ListByChannel(ctx, aud.ids[0])
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.UserID)
	}
	names, err := f.Users.Names(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load subscriber names: %w", err)
	}
	out := make([]subscriberRow, 0, len(list))
	for _, m := range list {
		out = append(out, subscriberRow{Membership: m, Name: names[m.UserID]})
	}
	return subscriberRows(out), nil
}

func (f *Fetchers) memberFeed(ctx context.Context, sc tabload.Scope) (any, error) {
	return withAudience(f.memberAudience, f.posts)(ctx, sc)
}

func (f *Fetchers) memberQA(ctx context.Context, sc tabload.Scope) (any, error) {
	return withAudience(f.memberAudience, f.qa)(ctx, sc)
}

func (f *Fetchers) memberVideos(ctx context.Context, sc tabload.Scope) (any, error) {
	return withAudience(f.memberAudience, f.videos)(ctx, sc)
}

func (f *Fetchers) memberNotes(ctx context.Context, sc tabload.Scope) (any, error) {
	return withAudience(f.memberAudience, f.notes)(ctx, sc)
}

// memberSubscriptions lists the workspace's active channels, flagging the
// ones the member follows.
func (f *Fetchers) memberSubscriptions(ctx context.Context, sc tabload.Scope) (any, error) {
	uid, err := userID(sc)
	if err != nil {
		return nil, err
	}
	chans, err := f.Channels.ListActive(ctx, workspaceID(sc))
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	ids, err := f.Memberships.ChannelIDs(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	mine := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		mine[id] = true
	}
	out := make([]subscriptionRow, 0, len(chans))
	for _, c := range chans {
		out = append(out, subscriptionRow{Channel: c, Subscribed: mine[c.ID]})
	}
	return subscriptionRows(out), nil
}
