// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultSize is the number of rows shown per page when the client does not
// ask for a size.
const DefaultSize = 10

// MaxSize caps client-requested page sizes.
const MaxSize = 100

// Page returns the 1-based page of items. A page below 1 is treated as 1
// and a size below 1 as DefaultSize. A page past the end yields an empty,
// non-nil slice. The result shares the backing array of items.
func Page[T any](items []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	if page > TotalPages(len(items), size) {
		return []T{}
	}
	start := (page - 1) * size
	end := len(items)
	if size < end-start {
		end = start + size
	}
	return items[start:end]
}

// TotalPages returns how many pages n items fill. Zero items is zero pages.
func TotalPages(n, size int) int {
	if size < 1 {
		size = DefaultSize
	}
	if n <= 0 {
		return 0
	}
	pages := n / size
	if n%size != 0 {
		pages++
	}
	return pages
}

// ParsePage extracts the 1-based "page" query parameter.
// Returns 1 if not present or invalid.
func ParsePage(r *http.Request) int {
	return parsePositive(query.Get(r, "page"), 1)
}

// ParseSize extracts the "size" query parameter, falling back to def and
// clamping to max.
func ParseSize(r *http.Request, def, max int) int {
	if def < 1 {
		def = DefaultSize
	}
	n := parsePositive(query.Get(r, "size"), def)
	if max > 0 && n > max {
		n = max
	}
	return n
}

func parsePositive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Range holds display values for a paginated list.
type Range struct {
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	Start      int  `json:"start"` // 1-based index of the first row shown (0 if none)
	End        int  `json:"end"`   // 1-based index of the last row shown (0 if none)
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// ComputeRange calculates display values for page of size over total rows.
func ComputeRange(page, size, total int) Range {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	r := Range{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: TotalPages(total, size),
	}
	if page <= r.TotalPages {
		start := (page - 1) * size
		r.Start = start + 1
		r.End = total
		if size < total-start {
			r.End = start + size
		}
	}
	r.HasPrev = page > 1
	r.HasNext = page < r.TotalPages
	return r
}

// ApplyToFind configures skip/limit/sort for an offset page.
func ApplyToFind(find *options.FindOptions, page, size int, sort bson.D) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultSize
	}
	if len(sort) > 0 {
		find.SetSort(sort)
	}
	skip := int64(math.MaxInt64)
	if int64(page-1) <= math.MaxInt64/int64(size) {
		skip = int64(page-1) * int64(size)
	}
	return find.SetSkip(skip).SetLimit(int64(size))
}
