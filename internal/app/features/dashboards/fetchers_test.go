package dashboards

import (
	"testing"
	"time"

	metricsstore "github.com/dalemusser/channelhub/internal/app/store/metrics"
	"github.com/dalemusser/channelhub/internal/app/system/contentview"
	"github.com/dalemusser/channelhub/internal/app/system/tabload"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.uber.org/zap"
)

func newFetchers(t *testing.T) (*Fetchers, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewFetchers(db, metricsstore.NewService(db, nil, zap.NewNop()), zap.NewNop()), testutil.NewFixtures(t, db)
}

// fetch runs the fetcher bound to tab on dashboard for sc.
func fetch(t *testing.T, f *Fetchers, dashboard, tab string, sc tabload.Scope) any {
	t.Helper()
	bound, ok := f.Build(dashboard, sc)
	if !ok {
		t.Fatalf("dashboard %s not available to %s", dashboard, sc.Role)
	}
	for _, b := range bound {
		if b.ID == tab {
			ctx, cancel := testutil.TestContext()
			defer cancel()
			payload, err := b.Fetch(ctx, sc)
			if err != nil {
				t.Fatalf("fetch %s/%s: %v", dashboard, tab, err)
			}
			return payload
		}
	}
	t.Fatalf("tab %s not bound on %s", tab, dashboard)
	return nil
}

func TestBuild_FollowsTabConfiguration(t *testing.T) {
	f := &Fetchers{}
	for _, name := range tabs.Names() {
		d, _ := tabs.Lookup(name)
		bound, ok := f.Build(name, tabload.Scope{Role: d.Roles[0]})
		if !ok {
			t.Fatalf("%s: not available to %s", name, d.Roles[0])
		}
		if len(bound) != len(d.Tabs) {
			t.Fatalf("%s: %d tabs bound, want %d", name, len(bound), len(d.Tabs))
		}
		for i, b := range bound {
			if b.ID != d.Tabs[i].ID || b.Fetch == nil {
				t.Errorf("%s tab %d = %q, want %q with a fetcher", name, i, b.ID, d.Tabs[i].ID)
			}
		}
	}
	if _, ok := f.Build(tabs.Admin, tabload.Scope{Role: models.RoleAgent}); ok {
		t.Error("agent must not build the admin dashboard")
	}
}

func TestAgentOrders_SeesOnlyOwnRows(t *testing.T) {
	f, fx := newFetchers(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := fx.CreateUser(ctx, "ama", models.RoleAgent, "pw")
	other := fx.CreateUser(ctx, "kofi", models.RoleAgent, "pw")
	myAgent := fx.CreateAgent(ctx, me.ID, "Ama", "active")
	otherAgent := fx.CreateAgent(ctx, other.ID, "Kofi", "active")
	fx.CreateOrder(ctx, myAgent.ID, 10, "pending", false)
	fx.CreateOrder(ctx, myAgent.ID, 20, "completed", false)
	fx.CreateOrder(ctx, otherAgent.ID, 30, "completed", false)

	sc := tabload.Scope{UserID: me.ID.Hex(), Role: models.RoleAgent}
	got := fetch(t, f, tabs.Agent, tabs.Orders, sc).(rows[orderRow])
	if got.Len() != 2 {
		t.Fatalf("agent sees %d orders, want 2", got.Len())
	}
	for _, o := range got.items {
		if o.AgentID != myAgent.ID || o.AgentName != "Ama" {
			t.Errorf("foreign or unnamed row: %+v", o)
		}
	}

	admin := tabload.Scope{UserID: fx.CreateUser(ctx, "boss", models.RoleAdmin, "pw").ID.Hex(), Role: models.RoleAdmin}
	all := fetch(t, f, tabs.Admin, tabs.Orders, admin).(rows[orderRow])
	if all.Len() != 3 {
		t.Errorf("admin sees %d orders, want 3", all.Len())
	}
}

func TestAgentOverview_IncludesBalance(t *testing.T) {
	f, fx := newFetchers(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := fx.CreateUser(ctx, "ama", models.RoleAgent, "pw")
	a := fx.CreateAgent(ctx, me.ID, "Ama", "active")
	fx.CreateOrder(ctx, a.ID, 10, "completed", false)

	st := fetch(t, f, tabs.Agent, tabs.Overview, tabload.Scope{UserID: me.ID.Hex(), Role: models.RoleAgent}).(metricsstore.DashboardStats)
	if st.Orders != 1 || len(st.Failed) != 0 {
		t.Errorf("overview = %+v", st)
	}
}

func TestAgentFetch_WithoutAgentRecordFails(t *testing.T) {
	f, fx := newFetchers(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "nobody", models.RoleAgent, "pw")
	bound, _ := f.Build(tabs.Agent, tabload.Scope{UserID: u.ID.Hex(), Role: models.RoleAgent})
	if _, err := bound[1].Fetch(ctx, tabload.Scope{UserID: u.ID.Hex(), Role: models.RoleAgent}); err == nil {
		t.Error("expected an error for a user without an agent record")
	}
}

func TestMemberFeed_OnlySubscribedChannels(t *testing.T) {
	f, fx := newFetchers(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := fx.CreateUser(ctx, "teach", models.RoleTeacher, "pw")
	teacher2 := fx.CreateUser(ctx, "teach2", models.RoleTeacher, "pw")
	member := fx.CreateUser(ctx, "kid", models.RoleMember, "pw")
	maths := fx.CreateChannel(ctx, teacher.ID, "Maths")
	art := fx.CreateChannel(ctx, teacher2.ID, "Art")
	fx.Subscribe(ctx, maths.ID, member.ID)

	now := time.Now().UTC()
	fx.CreatePost(ctx, maths.ID, teacher.ID, "Old", false, now.Add(-2*time.Hour))
	fx.CreatePost(ctx, maths.ID, teacher.ID, "Pinned", true, now.Add(-3*time.Hour))
	fx.CreatePost(ctx, maths.ID, teacher.ID, "New", false, now)
	fx.CreatePost(ctx, art.ID, teacher2.ID, "Elsewhere", false, now)

	sc := tabload.Scope{UserID: member.ID.Hex(), Role: models.RoleMember}
	feed := fetch(t, f, tabs.MemberChannel, tabs.Feed, sc).(rows[contentview.Post])

	var titles []string
	for _, p := range feed.items {
		titles = append(titles, p.Title)
		if p.Channel != "Maths" {
			t.Errorf("post %q channel = %q", p.Title, p.Channel)
		}
	}
	want := []string{"Pinned", "New", "Old"}
	if len(titles) != len(want) {
		t.Fatalf("feed = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("feed[%d] = %q, want %q", i, titles[i], want[i])
		}
	}

	subs := fetch(t, f, tabs.MemberChannel, tabs.Subscriptions, sc).(rows[subscriptionRow])
	if subs.Len() != 2 {
		t.Fatalf("subscriptions lists %d channels, want 2", subs.Len())
	}
	for _, c := range subs.items {
		if c.Subscribed != (c.ID == maths.ID) {
			t.Errorf("channel %s subscribed=%v", c.Name, c.Subscribed)
		}
	}
}

func TestTeacherTabs_WithoutChannelAreEmpty(t *testing.T) {
	f, fx := newFetchers(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := fx.CreateUser(ctx, "new", models.RoleTeacher, "pw")
	sc := tabload.Scope{UserID: teacher.ID.Hex(), Role: models.RoleTeacher}

	if n := fetch(t, f, tabs.TeacherChannel, tabs.Posts, sc).(rows[contentview.Post]).Len(); n != 0 {
		t.Errorf("posts = %d, want 0", n)
	}
	if n := fetch(t, f, tabs.TeacherChannel, tabs.Subscribers, sc).(rows[subscriberRow]).Len(); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestTeacherSubscribers_CarryNames(t *testing.T) {
	f, fx := newFetchers(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := fx.CreateUser(ctx, "teach", models.RoleTeacher, "pw")
	member := fx.CreateUser(ctx, "kid", models.RoleMember, "pw")
	ch := fx.CreateChannel(ctx, teacher.ID, "Maths")
	fx.Subscribe(ctx, ch.ID, member.ID)

	sc := tabload.Scope{UserID: teacher.ID.Hex(), Role: models.RoleTeacher}
	got := fetch(t, f, tabs.TeacherChannel, tabs.Subscribers, sc).(rows[subscriberRow])
	if got.Len() != 1 || got.items[0].Name != member.FullName {
		t.Errorf("subscribers = %+v", got.items)
	}
}

