// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/normalize"
)

// Limiter counts hits per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	hits   map[string]*window
	limit  int
	period time.Duration
	now    func() time.Time
}

type window struct {
	count int
	until time.Time
}

// New allows limit hits per key in every period.
func New(limit int, period time.Duration) *Limiter {
	return &Limiter{
		hits:   make(map[string]*window),
		limit:  limit,
		period: period,
		now:    time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.hits[key]
	if !ok || !now.Before(w.until) {
		l.hits[key] = &window{count: 1, until: now.Add(l.period)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining reports how many hits key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.hits[key]
	if !ok || !l.now().Before(w.until) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}

// Prune drops expired windows and returns how many were removed.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for k, w := range l.hits {
		if !now.Before(w.until) {
			delete(l.hits, k)
			n++
		}
	}
	return n
}

// SetClock replaces the time source. Tests only.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// ClientIP returns the caller's address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginGuard throttles sign-in attempts per client address and per
// login id, so neither a single source nor a single account can be
// hammered.
type LoginGuard struct {
	byIP    *Limiter
	byLogin *Limiter
}

// NewLoginGuard allows 10 attempts per address per minute and 5 per login
// id per 5 minutes.
func NewLoginGuard() *LoginGuard {
	return &LoginGuard{
		byIP:    New(10, time.Minute),
		byLogin: New(5, 5*time.Minute),
	}
}

// NewLoginGuardWith builds a guard with explicit limits.
func NewLoginGuardWith(ipLimit int, ipPeriod time.Duration, loginLimit int, loginPeriod time.Duration) *LoginGuard {
	return &LoginGuard{
		byIP:    New(ipLimit, ipPeriod),
		byLogin: New(loginLimit, loginPeriod),
	}
}

// Check records an attempt. When it is refused the returned message says
// why, suitable for a toast.
func (g *LoginGuard) Check(r *http.Request, loginID string) (bool, string) {
	if !g.byIP.Allow(ClientIP(r)) {
		return false, "Too many sign-in attempts. Please wait a minute and try again."
	}
	if key := normalize.LoginID(loginID); key != "" && !g.byLogin.Allow(key) {
		return false, "Too many sign-in attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// Succeeded clears the per-account counter after a good sign-in.
func (g *LoginGuard) Succeeded(loginID string) {
	if key := normalize.LoginID(loginID); key != "" {
		g.byLogin.Reset(key)
	}
}

// Prune drops expired windows from both limiters.
func (g *LoginGuard) Prune() int {
	return g.byIP.Prune() + g.byLogin.Prune()
}
