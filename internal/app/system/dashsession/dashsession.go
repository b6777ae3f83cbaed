// Package dashsession holds the per-user dashboard context: one shared tab
// cache and one tab controller per dashboard the user opens. Sessions are
// created at login, looked up by the id stored in the signed session
// cookie, and torn down at logout or after sitting idle.
package dashsession

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/tabcache"
	"github.com/dalemusser/channelhub/internal/app/system/tabload"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Builder returns the tab set for a dashboard as seen by scope.
// ok=false means the dashboard is not available to this user.
type Builder func(dashboard string, sc tabload.Scope) (tabs []tabload.Tab, ok bool)

// Session is the context object for one signed-in user.
type Session struct {
	ID    string
	Scope tabload.Scope
	Cache *tabcache.Store[any]

	mu         sync.Mutex
	dashboards map[string]*tabload.Controller
	lastSeen   time.Time
	build      Builder
	log        *zap.Logger
}

// Dashboard returns the controller for name, creating it on first use.
func (s *Session) Dashboard(name string) (*tabload.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.dashboards[name]; ok {
		return c, true
	}
	tabs, ok := s.build(name, s.Scope)
	if !ok {
		return nil, false
	}
	c := tabload.New(tabload.Config{
		Dashboard: name,
		Scope:     s.Scope,
		Tabs:      tabs,
		Cache:     s.Cache,
		Log:       s.log,
	})
	s.dashboards[name] = c
	return c, true
}

// opened returns the controller for name only if the dashboard was
// already opened in this session.
func (s *Session) opened(name string) (*tabload.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.dashboards[name]
	return c, ok
}

// Touch records activity.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the most recent Touch.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// clear resets every controller and empties the cache.
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.dashboards {
		c.Reset()
	}
	s.dashboards = make(map[string]*tabload.Controller)
	s.Cache.Clear()
}

// Registry maps session ids to live sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	build    Builder
	log      *zap.Logger
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(build Builder, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		build:    build,
		log:      logger,
		now:      time.Now,
	}
}

// Open starts a new session for sc and returns it.
func (r *Registry) Open(sc tabload.Scope) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		Scope:      sc,
		Cache:      tabcache.New[any](),
		dashboards: make(map[string]*tabload.Controller),
		lastSeen:   r.clock(),
		build:      r.build,
		log:        r.log,
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.log.Info("dashboard session opened",
		zap.String("session_id", s.ID),
		zap.String("user_id", sc.UserID),
		zap.String("role", sc.Role))
	return s
}

// Get returns the session for id and marks it as seen.
func (r *Registry) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.Touch(r.clock())
	}
	return s, ok
}

// End tears the session down: every loaded-set is reset and the cache is
// cleared. Ending an unknown id is a no-op.
func (r *Registry) End(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.clear()
	r.log.Info("dashboard session ended",
		zap.String("session_id", id),
		zap.String("user_id", s.Scope.UserID))
	return true
}

// EndUser ends every session belonging to userID, for example after the
// account is disabled.
func (r *Registry) EndUser(userID string) int {
	r.mu.RLock()
	var ids []string
	for id, s := range r.sessions {
		if s.Scope.UserID == userID {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, id := range ids {
		if r.End(id) {
			n++
		}
	}
	return n
}

// Invalidate refetches tabIDs on dashboard in every session of userID that
// has already loaded or started loading them. Tabs the user never opened
// stay NotLoaded and load fresh on first activation. A tab mid-fetch is
// fetched once more when that fetch ends. It returns the number of tabs
// refreshed.
func (r *Registry) Invalidate(ctx context.Context, userID, dashboard string, tabIDs ...string) int {
	n := r.invalidate(ctx, func(s *Session) bool { return s.Scope.UserID == userID }, dashboard, tabIDs)
	if n > 0 {
		r.log.Debug("dashboard tabs invalidated",
			zap.String("user_id", userID),
			zap.String("dashboard", dashboard),
			zap.Strings("tabs", tabIDs),
			zap.Int("refreshes", n))
	}
	return n
}

// InvalidateDashboard is Invalidate for every user with dashboard open,
// used when shared data such as the admin tables changes.
func (r *Registry) InvalidateDashboard(ctx context.Context, dashboard string, tabIDs ...string) int {
	n := r.invalidate(ctx, func(*Session) bool { return true }, dashboard, tabIDs)
	if n > 0 {
		r.log.Debug("dashboard tabs invalidated",
			zap.String("dashboard", dashboard),
			zap.Strings("tabs", tabIDs),
			zap.Int("refreshes", n))
	}
	return n
}

func (r *Registry) invalidate(ctx context.Context, match func(*Session) bool, dashboard string, tabIDs []string) int {
	r.mu.RLock()
	var hit []*Session
	for _, s := range r.sessions {
		if match(s) {
			hit = append(hit, s)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, s := range hit {
		c, ok := s.opened(dashboard)
		if !ok {
			continue
		}
		for _, id := range tabIDs {
			if !c.Has(id) || c.State(id).State == tabload.NotLoaded {
				continue
			}
			if _, err := c.Refresh(ctx, id); err == nil {
				n++
			}
		}
	}
	return n
}

// Sweep ends sessions idle for longer than idle and returns how many.
func (r *Registry) Sweep(_ context.Context, idle time.Duration) int {
	cutoff := r.clock().Add(-idle)

	r.mu.RLock()
	var stale []string
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, id := range stale {
		if r.End(id) {
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SetClock replaces the registry's time source. Tests only.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *Registry) clock() time.Time {
	r.mu.RLock()
	now := r.now
	r.mu.RUnlock()
	return now()
}
