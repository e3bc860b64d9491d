// Package browse holds the view state of the product list and the product
// detail pages, independent of how they are rendered.
package browse

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/niksmo/producthub/internal/core/dates"
	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
	"github.com/niksmo/producthub/pkg/debounce"
	"github.com/niksmo/producthub/pkg/pagination"
)

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "loading"
}

const (
	ListErrorMessage = "Failed to fetch data. Please try again later."

	DefaultSearchDebounce = 300 * time.Millisecond
)

type ListConfig struct {
	PageSize       int
	SearchDebounce time.Duration
	Clock          debounce.Clock
	Location       *time.Location
}

func (c ListConfig) withDefaults() ListConfig {
	if c.PageSize <= 0 {
		c.PageSize = pagination.DefaultPageSize
	}
	if c.SearchDebounce <= 0 {
		c.SearchDebounce = DefaultSearchDebounce
	}
	if c.Clock == nil {
		c.Clock = debounce.RealClock
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// ListSnapshot is a consistent copy of the list state for rendering.
type ListSnapshot struct {
	Status           Status
	Error            string
	PendingQuery     string
	Query            string
	Category         string
	Dates            domain.DateRange
	Categories       []string
	Total            int
	Items            []domain.Product
	Pagination       pagination.Pagination
	Window           []pagination.Item
	HasActiveFilters bool
	SearchDebounce   time.Duration
}

// ListView composes catalog loading, filtering and pagination.
//
// The search box has two values: the pending query follows every keystroke,
// the committed query is what filters and only follows the pending one
// after the input has been quiet for the debounce interval.
type ListView struct {
	mu     sync.Mutex
	loader port.CatalogLoader
	cfg    ListConfig
	search *debounce.Debouncer[string]

	loadSeq    uint64
	status     Status
	errMsg     string
	products   []domain.Product
	categories []string

	pendingQuery string
	query        string
	category     string
	dates        domain.DateRange
	page         int
}

func NewListView(loader port.CatalogLoader, cfg ListConfig) *ListView {
	cfg = cfg.withDefaults()
	v := &ListView{
		loader:   loader,
		cfg:      cfg,
		status:   StatusLoading,
		category: domain.CategoryAll,
		page:     1,
	}
	v.search = debounce.New(cfg.Clock, cfg.SearchDebounce, v.commitQuery)
	return v
}

// Load fetches the catalog. Any failure leaves the view in the failed
// state with one generic message. A load superseded by a newer one is
// discarded.
func (v *ListView) Load(ctx context.Context) error {
	const op = "ListView.Load"

	v.mu.Lock()
	v.loadSeq++
	seq := v.loadSeq
	v.status = StatusLoading
	v.errMsg = ""
	v.mu.Unlock()

	c, err := v.loader.LoadCatalog(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if seq != v.loadSeq {
		return nil
	}
	if err != nil {
		v.status = StatusFailed
		v.errMsg = ListErrorMessage
		return fmt.Errorf("%s: %w", op, err)
	}
	v.products = c.Products
	v.categories = c.Categories
	v.status = StatusReady
	return nil
}

// Retry re-issues the same load.
func (v *ListView) Retry(ctx context.Context) error {
	return v.Load(ctx)
}

// TypeQuery records a keystroke and restarts the debounce interval.
func (v *ListView) TypeQuery(q string) {
	v.mu.Lock()
	v.pendingQuery = q
	v.mu.Unlock()
	v.search.Push(q)
}

// SubmitQuery commits q immediately.
func (v *ListView) SubmitQuery(q string) {
	v.search.Cancel()
	v.mu.Lock()
	v.pendingQuery = q
	v.mu.Unlock()
	v.commitQuery(q)
}

func (v *ListView) commitQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.query != q {
		v.query = q
		v.page = 1
	}
}

func (v *ListView) SetCategory(c string) {
	if c == "" {
		c = domain.CategoryAll
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.category != c {
		v.category = c
		v.page = 1
	}
}

func (v *ListView) SetDateRange(r domain.DateRange) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.dates.From.Equal(r.From) || !v.dates.To.Equal(r.To) {
		v.dates = r
		v.page = 1
	}
}

// Apply sets every filter at once, committing the query without delay.
func (v *ListView) Apply(f domain.Filters) {
	f = f.Normalized()
	v.SubmitQuery(f.Query)
	v.SetCategory(f.Category)
	v.SetDateRange(f.Dates)
}

func (v *ListView) ClearFilters() {
	v.Apply(domain.Filters{})
}

func (v *ListView) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = pagination.Clamp(page, v.paginationLocked(v.filteredLocked()).TotalPages)
}

func (v *ListView) NextPage() {
	v.mu.Lock()
	page := v.page + 1
	v.mu.Unlock()
	v.SetPage(page)
}

func (v *ListView) PrevPage() {
	v.mu.Lock()
	page := v.page - 1
	v.mu.Unlock()
	v.SetPage(page)
}

func (v *ListView) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *ListView) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

func (v *ListView) PendingQuery() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pendingQuery
}

func (v *ListView) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Filtered returns the products passing the search, category and date
// filters, applied in that order.
func (v *ListView) Filtered() []domain.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filteredLocked()
}

func (v *ListView) Snapshot() ListSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	filtered := v.filteredLocked()
	p := v.paginationLocked(filtered)
	return ListSnapshot{
		Status:           v.status,
		Error:            v.errMsg,
		PendingQuery:     v.pendingQuery,
		Query:            v.query,
		Category:         v.category,
		Dates:            v.dates,
		Categories:       append([]string(nil), v.categories...),
		Total:            len(filtered),
		Items:            pagination.Slice(filtered, p),
		Pagination:       p,
		Window:           pagination.Window(p.Page, p.TotalPages),
		HasActiveFilters: v.hasActiveFiltersLocked(),
		SearchDebounce:   v.cfg.SearchDebounce,
	}
}

func (v *ListView) HasActiveFilters() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hasActiveFiltersLocked()
}

func (v *ListView) hasActiveFiltersLocked() bool {
	return v.pendingQuery != "" ||
		v.category != domain.CategoryAll ||
		!v.dates.IsZero()
}

func (v *ListView) paginationLocked(filtered []domain.Product) pagination.Pagination {
	return pagination.New(v.page, v.cfg.PageSize, len(filtered))
}

func (v *ListView) filteredLocked() []domain.Product {
	ps := v.products
	ps = MatchTitle(ps, v.query)
	ps = MatchCategory(ps, v.category)
	return dates.FilterByDateRange(ps, v.dates, v.cfg.Location)
}

// MatchTitle keeps products whose title contains q, ignoring case.
func MatchTitle(ps []domain.Product, q string) []domain.Product {
	if q == "" {
		return ps
	}
	needle := cases.Fold().String(q)
	out := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		if strings.Contains(cases.Fold().String(p.Title), needle) {
			out = append(out, p)
		}
	}
	return out
}

// MatchCategory keeps products of category c. [domain.CategoryAll] keeps all.
func MatchCategory(ps []domain.Product, c string) []domain.Product {
	if c == "" || c == domain.CategoryAll {
		return ps
	}
	out := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}
