package tabload

import "sync"

// LoadedSet records which tabs have been fetched successfully in the
// current session. Membership only grows; Reset (logout) is the only way
// back to NotLoaded.
type LoadedSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewLoadedSet returns an empty set.
func NewLoadedSet() *LoadedSet {
	return &LoadedSet{ids: make(map[string]struct{})}
}

// Has reports whether tabID has been marked loaded.
func (s *LoadedSet) Has(tabID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[tabID]
	return ok
}

// MarkLoaded adds tabID. Marking an already-loaded tab is a no-op.
func (s *LoadedSet) MarkLoaded(tabID string) {
	s.mu.Lock()
	s.ids[tabID] = struct{}{}
	s.mu.Unlock()
}

// Len returns how many tabs are loaded.
func (s *LoadedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Reset returns every tab to NotLoaded.
func (s *LoadedSet) Reset() {
	s.mu.Lock()
	s.ids = make(map[string]struct{})
	s.mu.Unlock()
}
