// Package flags keeps small per-browser client flags (for example "the
// audio banner was dismissed on 2026-10-15") in a signed cookie.
//
// Values are plain strings with no schema or versioning.
package flags

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	// MaxFlags caps how many keys one browser may hold.
	MaxFlags = 32
	// MaxValueLen caps a single value.
	MaxValueLen = 256

	dayLayout = "2006-01-02"
)

var (
	ErrBadKey   = errors.New("flag key must be 1-64 chars of a-z, 0-9, '.', '_' or '-'")
	ErrTooLarge = errors.New("flag value too long")
	ErrTooMany  = errors.New("too many flags")
)

var keyRe = regexp.MustCompile(`^[a-z0-9._-]{1,64}$`)

// ValidKey reports whether k may be used as a flag key.
func ValidKey(k string) bool { return keyRe.MatchString(k) }

// Store reads and writes the flag cookie.
type Store struct {
	sc     *securecookie.SecureCookie
	name   string
	secure bool
	maxAge time.Duration
}

// NewStore signs the cookie with hashKey (32 or 64 bytes recommended).
func NewStore(hashKey []byte, name string, secure bool) *Store {
	if name == "" {
		name = "channelhub-flags"
	}
	maxAge := 365 * 24 * time.Hour
	sc := securecookie.New(hashKey, nil)
	sc.MaxAge(int(maxAge.Seconds()))
	return &Store{sc: sc, name: name, secure: secure, maxAge: maxAge}
}

// All returns the flags carried by r. A missing or tampered cookie yields
// an empty map.
func (s *Store) All(r *http.Request) map[string]string {
	out := map[string]string{}
	c, err := r.Cookie(s.name)
	if err != nil {
		return out
	}
	if err := s.sc.Decode(s.name, c.Value, &out); err != nil {
		return map[string]string{}
	}
	return out
}

// Get returns one flag.
func (s *Store) Get(r *http.Request, key string) (string, bool) {
	v, ok := s.All(r)[key]
	return v, ok
}

// Set stores key=value and rewrites the cookie. It returns the new flag set.
func (s *Store) Set(w http.ResponseWriter, r *http.Request, key, value string) (map[string]string, error) {
	if !ValidKey(key) {
		return nil, ErrBadKey
	}
	if len(value) > MaxValueLen {
		return nil, ErrTooLarge
	}
	all := s.All(r)
	if _, exists := all[key]; !exists && len(all) >= MaxFlags {
		return nil, ErrTooMany
	}
	all[key] = value
	return all, s.write(w, all)
}

// Delete removes key and rewrites the cookie.
func (s *Store) Delete(w http.ResponseWriter, r *http.Request, key string) (map[string]string, error) {
	all := s.All(r)
	delete(all, key)
	return all, s.write(w, all)
}

func (s *Store) write(w http.ResponseWriter, all map[string]string) error {
	enc, err := s.sc.Encode(s.name, all)
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    enc,
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		Secure:   s.secure,
		HttpOnly: false, // the client reads flags too
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Day formats t as the value used for once-a-day flags.
func Day(t time.Time) string { return t.Format(dayLayout) }

// SeenOn reports whether a once-a-day flag was recorded on the same
// calendar day as now.
func SeenOn(all map[string]string, key string, now time.Time) bool {
	return all[key] == Day(now)
}
