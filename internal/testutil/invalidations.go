package testutil

import (
	"context"
	"strings"
	"sync"
)

// Invalidations records tab invalidations requested by handlers. Each
// call is recorded as "<user> <dashboard>:<tab>,<tab>", with "*" for the
// user on dashboard-wide calls.
type Invalidations struct {
	mu    sync.Mutex
	calls []string
}

func (i *Invalidations) Invalidate(_ context.Context, userID, dashboard string, tabIDs ...string) int {
	i.record(userID, dashboard, tabIDs)
	return len(tabIDs)
}

func (i *Invalidations) InvalidateDashboard(_ context.Context, dashboard string, tabIDs ...string) int {
	i.record("*", dashboard, tabIDs)
	return len(tabIDs)
}

func (i *Invalidations) record(user, dashboard string, tabIDs []string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls = append(i.calls, user+" "+dashboard+":"+strings.Join(tabIDs, ","))
}

// Calls returns the recorded calls in order.
func (i *Invalidations) Calls() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.calls...)
}

// Has reports whether call was recorded.
func (i *Invalidations) Has(call string) bool {
	for _, c := range i.Calls() {
		if c == call {
			return true
		}
	}
	return false
}
