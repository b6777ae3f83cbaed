// Package tabs is the static tab configuration for every dashboard.
package tabs

import "github.com/dalemusser/channelhub/internal/domain/models"

// Dashboard names.
const (
	Admin          = "admin"
	Agent          = "agent"
	TeacherChannel = "teacher"
	MemberChannel  = "member"
)

// Tab ids. Several ids are shared across dashboards.
const (
	Overview      = "overview"
	Agents        = "agents"
	Orders        = "orders"
	Withdrawals   = "withdrawals"
	Referrals     = "referrals"
	Jobs          = "jobs"
	Posts         = "posts"
	Feed          = "feed"
	QA            = "qa"
	Videos        = "videos"
	Notes         = "notes"
	Subscribers   = "subscribers"
	Subscriptions = "subscriptions"
)

// Tab is one selectable section of a dashboard. View names the client-side
// template that renders its payload.
type Tab struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	View  string `json:"view"`
}

// Dashboard is an ordered tab set plus the roles allowed to open it.
type Dashboard struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Tabs       []Tab    `json:"tabs"`
	DefaultTab string   `json:"default_tab"`
	Roles      []string `json:"-"`
}

var dashboards = map[string]Dashboard{
	Admin: {
		Name:  Admin,
		Title: "Admin Portal",
		Tabs: []Tab{
			{ID: Overview, Label: "Overview", Icon: "gauge", View: "stats"},
			{ID: Agents, Label: "Agents", Icon: "users", View: "table"},
			{ID: Orders, Label: "Orders", Icon: "receipt", View: "table"},
			{ID: Withdrawals, Label: "Withdrawals", Icon: "wallet", View: "table"},
			{ID: Referrals, Label: "Referrals", Icon: "share", View: "table"},
			{ID: Jobs, Label: "Jobs", Icon: "briefcase", View: "table"},
		},
		DefaultTab: Overview,
		Roles:      []string{models.RoleSuperAdmin, models.RoleAdmin},
	},
	Agent: {
		Name:  Agent,
		Title: "Agent Dashboard",
		Tabs: []Tab{
			{ID: Overview, Label: "Overview", Icon: "gauge", View: "stats"},
			{ID: Referrals, Label: "Referrals", Icon: "share", View: "table"},
			{ID: Orders, Label: "Orders", Icon: "receipt", View: "table"},
			{ID: Withdrawals, Label: "Withdrawals", Icon: "wallet", View: "table"},
			{ID: Jobs, Label: "Jobs", Icon: "briefcase", View: "cards"},
		},
		DefaultTab: Overview,
		Roles:      []string{models.RoleAgent},
	},
	TeacherChannel: {
		Name:  TeacherChannel,
		Title: "My Channel",
		Tabs: []Tab{
			{ID: Posts, Label: "Posts", Icon: "message", View: "feed"},
			{ID: QA, Label: "Q&A", Icon: "help", View: "qa"},
			{ID: Videos, Label: "Videos", Icon: "video", View: "videos"},
			{ID: Notes, Label: "Lesson Notes", Icon: "book", View: "notes"},
			{ID: Subscribers, Label: "Subscribers", Icon: "users", View: "table"},
		},
		DefaultTab: Posts,
		Roles:      []string{models.RoleTeacher},
	},
	MemberChannel: {
		Name:  MemberChannel,
		Title: "Channels",
		Tabs: []Tab{
			{ID: Feed, Label: "Feed", Icon: "message", View: "feed"},
			{ID: QA, Label: "Q&A", Icon: "help", View: "qa"},
			{ID: Videos, Label: "Videos", Icon: "video", View: "videos"},
			{ID: Notes, Label: "Lesson Notes", Icon: "book", View: "notes"},
			{ID: Subscriptions, Label: "Subscriptions", Icon: "bell", View: "table"},
		},
		DefaultTab: Feed,
		Roles:      []string{models.RoleMember},
	},
}

// Lookup returns the dashboard named name.
func Lookup(name string) (Dashboard, bool) {
	d, ok := dashboards[name]
	return d, ok
}

// Names returns the dashboard names in a fixed order.
func Names() []string {
	return []string{Admin, Agent, TeacherChannel, MemberChannel}
}

// Allows reports whether role may open the dashboard.
func (d Dashboard) Allows(role string) bool {
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Has reports whether the dashboard has a tab with id.
func (d Dashboard) Has(id string) bool {
	for _, t := range d.Tabs {
		if t.ID == id {
			return true
		}
	}
	return false
}

// ForRole returns the dashboard a role lands on after login.
func ForRole(role string) (Dashboard, bool) {
	for _, name := range Names() {
		if d := dashboards[name]; d.Allows(role) {
			return d, true
		}
	}
	return Dashboard{}, false
}
