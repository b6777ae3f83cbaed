package dashboards

import (
	"github.com/dalemusser/channelhub/internal/app/system/contentview"
	"github.com/dalemusser/channelhub/internal/app/system/paging"
	"github.com/dalemusser/channelhub/internal/app/system/search"
	"github.com/dalemusser/channelhub/internal/domain/models"
)

// listQuery is what the tab endpoint asks of a cached row set.
type listQuery struct {
	Page     int
	Size     int
	Term     string
	Category string
	Fuzzy    bool
}

// listPage is one filtered page of a tab's rows.
type listPage struct {
	Rows     any          `json:"rows"`
	Range    paging.Range `json:"range"`
	Filtered bool         `json:"filtered"`
}

// pager is implemented by every cached row set so the tab endpoint can
// filter and page a payload without knowing its row type.
type pager interface {
	page(q listQuery) listPage
}

// rows is the cached payload of a list tab. The full result set is
// cached once; search and paging run over it on every request.
type rows[T any] struct {
	items    []T
	text     func(T) []string
	category func(T) string
}

func (r rows[T]) page(q listQuery) listPage {
	sq := search.Query[T]{
		Term:       q.Term,
		Category:   q.Category,
		Fuzzy:      q.Fuzzy,
		Text:       r.text,
		CategoryOf: r.category,
	}
	matched := search.Filter(r.items, sq)
	return listPage{
		Rows:     paging.Page(matched, q.Page, q.Size),
		Range:    paging.ComputeRange(q.Page, q.Size, len(matched)),
		Filtered: sq.Active(),
	}
}

// Len reports the number of cached rows.
func (r rows[T]) Len() int { return len(r.items) }

/*─────────────────────────────────────────────────────────────────────────────*
| Row types                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type agentRow struct {
	models.Agent
}

func agentRows(items []agentRow) rows[agentRow] {
	return rows[agentRow]{
		items:    items,
		text:     func(a agentRow) []string { return []string{a.DisplayName, a.Phone, a.ReferralCode} },
		category: func(a agentRow) string { return a.Status },
	}
}

type orderRow struct {
	models.Order
	AgentName string `json:"agent_name"`
}

func orderRows(items []orderRow) rows[orderRow] {
	return rows[orderRow]{
		items: items,
		text: func(o orderRow) []string {
			return []string{o.Reference, o.Recipient, o.Network, o.Bundle, o.AgentName}
		},
		category: func(o orderRow) string { return o.Status },
	}
}

type withdrawalRow struct {
	models.Withdrawal
	AgentName string `json:"agent_name"`
}

func withdrawalRows(items []withdrawalRow) rows[withdrawalRow] {
	return rows[withdrawalRow]{
		items:    items,
		text:     func(w withdrawalRow) []string { return []string{w.AgentName, w.Account, w.Method} },
		category: func(w withdrawalRow) string { return w.Status },
	}
}

type referralRow struct {
	models.Referral
	ReferrerName string `json:"referrer_name"`
	ReferredName string `json:"referred_name"`
}

func referralRows(items []referralRow) rows[referralRow] {
	return rows[referralRow]{
		items:    items,
		text:     func(r referralRow) []string { return []string{r.ReferrerName, r.ReferredName} },
		category: func(r referralRow) string { return r.Status },
	}
}

type jobRow struct {
	models.Job
	AssigneeName string `json:"assignee_name,omitempty"`
}

func jobRows(items []jobRow) rows[jobRow] {
	return rows[jobRow]{
		items:    items,
		text:     func(j jobRow) []string { return []string{j.Title, j.Description, j.AssigneeName} },
		category: func(j jobRow) string { return j.Category },
	}
}

func postRows(items []contentview.Post) rows[contentview.Post] {
	return rows[contentview.Post]{
		items:    items,
		text:     func(p contentview.Post) []string { return []string{p.Title, p.Body, p.Channel} },
		category: func(p contentview.Post) string { return p.Category },
	}
}

func qaRows(items []contentview.QA) rows[contentview.QA] {
	return rows[contentview.QA]{
		items:    items,
		text:     func(q contentview.QA) []string { return []string{q.Question, q.Topic, q.Channel} },
		category: func(q contentview.QA) string { return q.Topic },
	}
}

func videoRows(items []contentview.Video) rows[contentview.Video] {
	return rows[contentview.Video]{
		items:    items,
		text:     func(v contentview.Video) []string { return []string{v.Title, v.Channel} },
		category: func(v contentview.Video) string { return v.Source },
	}
}

func noteRows(items []contentview.Note) rows[contentview.Note] {
	return rows[contentview.Note]{
		items:    items,
		text:     func(n contentview.Note) []string { return []string{n.Title, n.Body, n.Channel} },
		category: func(n contentview.Note) string { return n.Channel },
	}
}

type subscriberRow struct {
	models.Membership
	Name string `json:"name"`
}

func subscriberRows(items []subscriberRow) rows[subscriberRow] {
	return rows[subscriberRow]{
		items:    items,
		text:     func(s subscriberRow) []string { return []string{s.Name} },
		category: func(s subscriberRow) string { return s.Plan },
	}
}

type subscriptionRow struct {
	models.Channel
	Subscribed bool `json:"subscribed"`
}

func subscriptionRows(items []subscriptionRow) rows[subscriptionRow] {
	return rows[subscriptionRow]{
		items:    items,
		text:     func(c subscriptionRow) []string { return []string{c.Name, c.Subject, c.Description} },
		category: func(c subscriptionRow) string { return c.Subject },
	}
}
