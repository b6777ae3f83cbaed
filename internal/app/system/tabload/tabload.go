// Package tabload runs the lazy tab loader used by every dashboard.
//
// A Controller tracks the active tab of one dashboard, fetches each tab's
// data at most once per session, and memoizes the result in a shared
// tabcache.Store. Activation never blocks: the fetch runs on its own
// goroutine and callers either wait on the returned Done channel or poll
// State/Payload until the tab reports Loaded.
//
// Failed fetches are logged and leave the tab NotLoaded, so the next
// activation tries again. That manual retry is the only retry policy.
package tabload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/channelhub/internal/app/system/tabcache"
	"go.uber.org/zap"
)

// ErrUnknownTab is returned when a tab id is not configured on the dashboard.
var ErrUnknownTab = errors.New("unknown tab")

// State is the load state of a single tab.
type State int

const (
	NotLoaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "not_loaded"
	}
}

// MarshalText lets State render as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Scope identifies who the data is being fetched for.
type Scope struct {
	UserID      string
	Role        string
	WorkspaceID string
}

// Fetcher loads one tab's payload. It makes a single attempt; errors are
// reported back to the Controller.
type Fetcher func(ctx context.Context, sc Scope) (any, error)

// Tab pairs a tab id with its fetcher.
type Tab struct {
	ID    string
	Fetch Fetcher
}

// KeyFunc derives the cache key for a tab.
type KeyFunc func(dashboard, tabID string, sc Scope) string

// DefaultKey namespaces the tab by dashboard and user: "admin/orders-<userID>".
func DefaultKey(dashboard, tabID string, sc Scope) string {
	return tabcache.Key(dashboard+"/"+tabID, sc.UserID)
}

// TabState is a point-in-time view of one tab.
type TabState struct {
	ID     string `json:"id"`
	State  State  `json:"state"`
	Active bool   `json:"active"`
	Error  string `json:"error,omitempty"`
}

// Activation describes what Activate did.
type Activation struct {
	Tab     string
	State   State
	Started bool            // a new fetch was launched by this call
	Done    <-chan struct{} // closed once no fetch is pending for the tab
}

// Config configures a Controller.
type Config struct {
	Dashboard string
	Scope     Scope
	Tabs      []Tab
	Cache     *tabcache.Store[any] // shared with the other dashboards of the session
	KeyFunc   KeyFunc
	Log       *zap.Logger
}

// Controller is the single entry point invoked whenever a tab is selected.
type Controller struct {
	dashboard string
	scope     Scope
	order     []string
	fetchers  map[string]Fetcher
	cache     *tabcache.Store[any]
	loaded    *LoadedSet
	keyFn     KeyFunc
	log       *zap.Logger

	mu       sync.Mutex
	active   string
	inflight map[string]chan struct{}
	dirty    map[string]bool // refreshed while in flight; fetch once more
	lastErr  map[string]string
	gen      uint64 // bumped by Reset; completions from older generations are dropped
}

// New builds a Controller from cfg.
func New(cfg Config) *Controller {
	c := &Controller{
		dashboard: cfg.Dashboard,
		scope:     cfg.Scope,
		fetchers:  make(map[string]Fetcher, len(cfg.Tabs)),
		cache:     cfg.Cache,
		loaded:    NewLoadedSet(),
		keyFn:     cfg.KeyFunc,
		log:       cfg.Log,
		inflight:  make(map[string]chan struct{}),
		dirty:     make(map[string]bool),
		lastErr:   make(map[string]string),
	}
	if c.cache == nil {
		c.cache = tabcache.New[any]()
	}
	if c.keyFn == nil {
		c.keyFn = DefaultKey
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	for _, t := range cfg.Tabs {
		if _, dup := c.fetchers[t.ID]; dup {
			continue
		}
		c.order = append(c.order, t.ID)
		c.fetchers[t.ID] = t.Fetch
	}
	return c
}

// Dashboard returns the dashboard name the controller serves.
func (c *Controller) Dashboard() string { return c.dashboard }

// Active returns the currently selected tab id ("" before any activation).
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// CacheKey returns the cache key used for tabID.
func (c *Controller) CacheKey(tabID string) string {
	return c.keyFn(c.dashboard, tabID, c.scope)
}

// Activate selects tabID and, when its data has not been fetched yet,
// starts the fetch. A tab that is loaded, cached, or already being
// fetched is not fetched again.
//
// The fetch is detached from ctx cancellation: navigating away does not
// abort it, and its result still lands in this tab's cache slot.
func (c *Controller) Activate(ctx context.Context, tabID string) (Activation, error) {
	fetch, ok := c.fetchers[tabID]
	if !ok {
		return Activation{}, fmt.Errorf("%w: %q on %s", ErrUnknownTab, tabID, c.dashboard)
	}
	key := c.CacheKey(tabID)

	c.mu.Lock()
	c.active = tabID

	if ch, busy := c.inflight[tabID]; busy {
		c.mu.Unlock()
		return Activation{Tab: tabID, State: Loading, Done: ch}, nil
	}
	if c.loaded.Has(tabID) || c.cache.Has(key) {
		c.mu.Unlock()
		c.log.Debug("tab cache hit",
			zap.String("dashboard", c.dashboard),
			zap.String("tab", tabID))
		return Activation{Tab: tabID, State: Loaded, Done: closedChan()}, nil
	}

	done := make(chan struct{})
	c.inflight[tabID] = done
	delete(c.lastErr, tabID)
	gen := c.gen
	c.mu.Unlock()

	go c.run(context.WithoutCancel(ctx), tabID, key, fetch, gen, done)

	return Activation{Tab: tabID, State: Loading, Started: true, Done: done}, nil
}

// Refresh refetches a tab that is already loaded, for example after a
// mutation made its rows stale. The tab stays Loaded with its old payload
// until the new one arrives; a failed refresh keeps the old payload.
// Refreshing a tab that was never loaded behaves like Activate without
// changing the active tab.
//
// A fetch already in flight may have read rows from before the mutation,
// so it is followed by one more fetch; the returned Done closes after it.
func (c *Controller) Refresh(ctx context.Context, tabID string) (Activation, error) {
	fetch, ok := c.fetchers[tabID]
	if !ok {
		return Activation{}, fmt.Errorf("%w: %q on %s", ErrUnknownTab, tabID, c.dashboard)
	}
	key := c.CacheKey(tabID)

	c.mu.Lock()
	if ch, busy := c.inflight[tabID]; busy {
		c.dirty[tabID] = true
		st := c.stateLocked(tabID).State
		c.mu.Unlock()
		return Activation{Tab: tabID, State: st, Done: ch}, nil
	}
	done := make(chan struct{})
	c.inflight[tabID] = done
	gen := c.gen
	c.mu.Unlock()

	go c.run(context.WithoutCancel(ctx), tabID, key, fetch, gen, done)

	return Activation{Tab: tabID, State: c.State(tabID).State, Started: true, Done: done}, nil
}

func (c *Controller) run(ctx context.Context, tabID, key string, fetch Fetcher, gen uint64, done chan struct{}) {
	defer close(done)
	for {
		payload, err := safeFetch(ctx, fetch, c.scope)

		c.mu.Lock()
		c.storeLocked(tabID, key, gen, payload, err)
		again := gen == c.gen && c.dirty[tabID]
		delete(c.dirty, tabID)
		if !again && c.inflight[tabID] == done {
			delete(c.inflight, tabID)
		}
		c.mu.Unlock()

		if !again {
			return
		}
		c.log.Debug("refetching tab refreshed mid-fetch",
			zap.String("dashboard", c.dashboard),
			zap.String("tab", tabID))
	}
}

// storeLocked records one fetch result. Results from before a Reset are
// dropped.
func (c *Controller) storeLocked(tabID, key string, gen uint64, payload any, err error) {
	if gen != c.gen {
		c.log.Debug("dropping tab result from ended session",
			zap.String("dashboard", c.dashboard),
			zap.String("tab", tabID))
		return
	}
	if err != nil {
		c.lastErr[tabID] = err.Error()
		c.log.Error("tab fetch failed",
			zap.String("dashboard", c.dashboard),
			zap.String("tab", tabID),
			zap.String("user_id", c.scope.UserID),
			zap.Error(err))
		return
	}
	c.cache.Set(key, payload)
	c.loaded.MarkLoaded(tabID)
	delete(c.lastErr, tabID)
	c.log.Debug("tab loaded",
		zap.String("dashboard", c.dashboard),
		zap.String("tab", tabID))
}

func safeFetch(ctx context.Context, fetch Fetcher, sc Scope) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panic: %v", r)
		}
	}()
	return fetch(ctx, sc)
}

// State reports the load state of tabID.
func (c *Controller) State(tabID string) TabState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(tabID)
}

func (c *Controller) stateLocked(tabID string) TabState {
	ts := TabState{ID: tabID, Active: tabID == c.active, Error: c.lastErr[tabID]}
	switch {
	case c.loaded.Has(tabID) || c.cache.Has(c.CacheKey(tabID)):
		ts.State = Loaded
	case c.inflight[tabID] != nil:
		ts.State = Loading
	default:
		ts.State = NotLoaded
	}
	return ts
}

// States returns every configured tab's state in configuration order.
func (c *Controller) States() []TabState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TabState, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.stateLocked(id))
	}
	return out
}

// Payload returns the cached payload for tabID.
func (c *Controller) Payload(tabID string) (any, bool) {
	return c.cache.Get(c.CacheKey(tabID))
}

// Wait returns a channel that is closed when no fetch is pending for tabID.
func (c *Controller) Wait(tabID string) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.inflight[tabID]; ok {
		return ch
	}
	return closedChan()
}

// Has reports whether tabID is configured.
func (c *Controller) Has(tabID string) bool {
	_, ok := c.fetchers[tabID]
	return ok
}

// Reset returns every tab to NotLoaded and drops this dashboard's cache
// entries. Fetches still in flight complete but their results are
// discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.loaded.Reset()
	c.inflight = make(map[string]chan struct{})
	c.dirty = make(map[string]bool)
	c.lastErr = make(map[string]string)
	c.active = ""
	for _, id := range c.order {
		c.cache.Delete(c.CacheKey(id))
	}
}

var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func closedChan() <-chan struct{} { return closed }
