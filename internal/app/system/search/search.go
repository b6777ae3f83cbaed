// internal/app/system/search/search.go
package search

import (
	"sort"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// AllCategories is the category value that disables category filtering.
const AllCategories = "all"

// Query describes a text search combined with a category filter.
//
// Text returns the searchable fields of an item; CategoryOf returns its
// category. Either may be nil when the corresponding filter is unused.
type Query[T any] struct {
	Term     string
	Category string
	Fuzzy    bool

	Text       func(T) []string
	CategoryOf func(T) string
}

// Active reports whether the query filters anything at all.
func (q Query[T]) Active() bool {
	return strings.TrimSpace(q.Term) != "" || !matchesAllCategories(q.Category)
}

// Filter returns the items that satisfy both the text predicate and the
// category predicate, preserving source order. An empty term and an empty
// (or "all") category both match everything. The result is never nil.
func Filter[T any](items []T, q Query[T]) []T {
	term := strings.TrimSpace(q.Term)
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !matchCategory(q, it) {
			continue
		}
		if term != "" && !matchText(q, it, term) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matchCategory[T any](q Query[T], it T) bool {
	if matchesAllCategories(q.Category) || q.CategoryOf == nil {
		return true
	}
	return text.Fold(q.CategoryOf(it)) == text.Fold(strings.TrimSpace(q.Category))
}

func matchText[T any](q Query[T], it T, term string) bool {
	if q.Text == nil {
		return false
	}
	for _, f := range q.Text(it) {
		if q.Fuzzy {
			if FuzzyMatch(term, f) {
				return true
			}
			continue
		}
		if ContainsFold(f, term) {
			return true
		}
	}
	return false
}

func matchesAllCategories(c string) bool {
	c = strings.TrimSpace(c)
	return c == "" || strings.EqualFold(c, AllCategories)
}

// ContainsFold reports whether needle occurs in haystack after folding
// case and diacritics.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(text.Fold(haystack), text.Fold(needle))
}

// FuzzyMatch reports whether the characters of needle appear in order in
// haystack, ignoring case.
func FuzzyMatch(needle, haystack string) bool {
	return fuzzy.MatchFold(needle, haystack)
}

// Rank orders the items whose key fuzzily matches term from closest to
// farthest. Ties keep source order.
func Rank[T any](items []T, term string, key func(T) string) []T {
	term = strings.TrimSpace(term)
	if term == "" {
		return append([]T(nil), items...)
	}

	type hit struct {
		idx  int
		dist int
	}
	var hits []hit
	for i, it := range items {
		k := key(it)
		if !fuzzy.MatchFold(term, k) {
			continue
		}
		hits = append(hits, hit{idx: i, dist: fuzzy.LevenshteinDistance(strings.ToLower(term), strings.ToLower(k))})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]T, 0, len(hits))
	for _, h := range hits {
		out = append(out, items[h.idx])
	}
	return out
}
