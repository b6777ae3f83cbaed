package paging

import (
	"math"
	"net/http/httptest"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPage(t *testing.T) {
	items := seq(47)

	tests := []struct {
		name string
		page int
		size int
		want []int
	}{
		{"first page", 1, 10, seq(10)},
		{"last partial page", 5, 10, items[40:47]},
		{"beyond last", 6, 10, []int{}},
		{"far beyond last", 99, 10, []int{}},
		{"page that would overflow the offset", 922337203685477582, 10, []int{}},
		{"max int page", math.MaxInt, 10, []int{}},
		{"page below one", 0, 10, seq(10)},
		{"size below one uses default", 1, 0, seq(DefaultSize)},
		{"max int size is one page", 1, math.MaxInt, items},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Page(items, tt.page, tt.size)
			if got == nil {
				t.Fatal("Page returned nil slice")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Page(47 items, %d, %d) = %v, want %v", tt.page, tt.size, got, tt.want)
			}
		})
	}
}

func TestPage_Deterministic(t *testing.T) {
	items := seq(47)
	a := Page(items, 3, 10)
	b := Page(items, 3, 10)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated Page calls differ: %v vs %v", a, b)
	}
}

func TestPage_ConcatenationCoversAll(t *testing.T) {
	items := seq(47)
	var all []int
	for p := 1; p <= TotalPages(len(items), 10); p++ {
		all = append(all, Page(items, p, 10)...)
	}
	if !reflect.DeepEqual(all, items) {
		t.Errorf("pages do not reassemble the source: %v", all)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct{ n, size, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{47, 10, 5},
		{50, 10, 5},
		{51, 10, 6},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.n, tt.size); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestParsePageAndSize(t *testing.T) {
	tests := []struct {
		url      string
		wantPage int
		wantSize int
	}{
		{"/x", 1, DefaultSize},
		{"/x?page=3&size=25", 3, 25},
		{"/x?page=-1&size=abc", 1, DefaultSize},
		{"/x?page=2&size=1000", 2, MaxSize},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.url, nil)
		if got := ParsePage(r); got != tt.wantPage {
			t.Errorf("ParsePage(%s) = %d, want %d", tt.url, got, tt.wantPage)
		}
		if got := ParseSize(r, DefaultSize, MaxSize); got != tt.wantSize {
			t.Errorf("ParseSize(%s) = %d, want %d", tt.url, got, tt.wantSize)
		}
	}
}

func TestComputeRange(t *testing.T) {
	tests := []struct {
		name              string
		page, size, total int
		want              Range
	}{
		{
			name: "no results",
			page: 1, size: 10, total: 0,
			want: Range{Page: 1, Size: 10},
		},
		{
			name: "first page",
			page: 1, size: 10, total: 47,
			want: Range{Page: 1, Size: 10, Total: 47, TotalPages: 5, Start: 1, End: 10, HasNext: true},
		},
		{
			name: "last partial page",
			page: 5, size: 10, total: 47,
			want: Range{Page: 5, Size: 10, Total: 47, TotalPages: 5, Start: 41, End: 47, HasPrev: true},
		},
		{
			name: "beyond last",
			page: 6, size: 10, total: 47,
			want: Range{Page: 6, Size: 10, Total: 47, TotalPages: 5, HasPrev: true},
		},
		{
			name: "huge page",
			page: math.MaxInt, size: 10, total: 47,
			want: Range{Page: math.MaxInt, Size: 10, Total: 47, TotalPages: 5, HasPrev: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRange(tt.page, tt.size, tt.total)
			if got != tt.want {
				t.Errorf("ComputeRange(%d, %d, %d) = %+v, want %+v", tt.page, tt.size, tt.total, got, tt.want)
			}
		})
	}
}

func TestApplyToFind(t *testing.T) {
	find := ApplyToFind(options.Find(), 3, 20, bson.D{{Key: "created_at", Value: -1}})
	if find.Skip == nil || *find.Skip != 40 {
		t.Errorf("Skip = %v, want 40", find.Skip)
	}
	if find.Limit == nil || *find.Limit != 20 {
		t.Errorf("Limit = %v, want 20", find.Limit)
	}
}

func TestApplyToFind_HugePageDoesNotWrap(t *testing.T) {
	find := ApplyToFind(options.Find(), math.MaxInt, 10, nil)
	if find.Skip == nil || *find.Skip < 0 {
		t.Fatalf("Skip = %v, want a non-negative offset", find.Skip)
	}
	if find.Sort != nil {
		t.Errorf("Sort = %v, want unset", find.Sort)
	}
}
