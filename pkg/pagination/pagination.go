// Package pagination computes page metadata and the page-number controls
// of a paginated listing.
package pagination

import "math"

const DefaultPageSize = 10

// Pagination contains metadata for a paginated listing.
type Pagination struct {
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// New computes pagination metadata, clamping page into [1, TotalPages].
func New(page, pageSize, total int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := TotalPages(total, pageSize)
	return Pagination{
		Page:       Clamp(page, totalPages),
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

// Clamp bounds page into [1, totalPages]. Zero pages still yields page 1.
func Clamp(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// Bounds returns the half-open index range of the current page.
func (p Pagination) Bounds() (start, end int) {
	start = (p.Page - 1) * p.PageSize
	if start > p.Total {
		start = p.Total
	}
	end = min(start+p.PageSize, p.Total)
	return start, end
}

// Slice returns the items of the current page.
func Slice[T any](items []T, p Pagination) []T {
	start, end := p.Bounds()
	if start >= len(items) {
		return nil
	}
	return items[start:min(end, len(items))]
}

// An Item is one entry of the page-number control.
type Item struct {
	Page     int
	Ellipsis bool
	Current  bool
}

// Window returns the page-number controls: the first page, the last page
// and the pages within one of current. A single ellipsis stands for every
// gap between shown pages.
func Window(current, totalPages int) []Item {
	var items []Item
	prev := 0
	for page := 1; page <= totalPages; page++ {
		shown := page == 1 || page == totalPages ||
			(page >= current-1 && page <= current+1)
		if !shown {
			continue
		}
		if prev != 0 && page-prev > 1 {
			items = append(items, Item{Ellipsis: true})
		}
		items = append(items, Item{Page: page, Current: page == current})
		prev = page
	}
	return items
}
