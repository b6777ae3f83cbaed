// Package tabcache is the in-memory store for the last-fetched payload of
// each dashboard tab.
//
// Entries live for as long as the owning dashboard session. There is no
// expiry and no size bound; the backing store remains the source of truth
// and callers drop the whole store on logout.
package tabcache

import (
	"sort"
	"strings"
	"sync"
)

// Store maps a cache key to the most recently fetched payload.
// At most one entry exists per key; Set overwrites.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// New returns an empty Store.
func New[V any]() *Store[V] {
	return &Store[V]{entries: make(map[string]V)}
}

// Get returns the payload for key and whether it was present.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Has reports whether key has an entry.
func (s *Store[V]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

// Set stores v under key, replacing any previous entry.
func (s *Store[V]) Set(key string, v V) {
	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()
}

// Delete removes a single entry. Deleting a missing key is a no-op.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// DeletePrefix removes every entry whose key starts with prefix and
// returns how many were removed.
func (s *Store[V]) DeletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Clear empties the store.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]V)
	s.mu.Unlock()
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns the current keys in sorted order.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Key builds a composite cache key such as "dashboard-<userID>".
// Empty parts are skipped.
func Key(base string, parts ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteByte('-')
		b.WriteString(p)
	}
	return b.String()
}
