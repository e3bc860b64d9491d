package httphandler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/niksmo/producthub/internal/core/browse"
	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/pkg/pagination"
	"github.com/niksmo/producthub/web"
)

const dateLayout = "2006-01-02"

// Views renders the HTML pages.
type Views struct {
	templates *template.Template
}

func NewViews() (*Views, error) {
	const op = "NewViews"

	funcMap := template.FuncMap{
		"price":         formatPrice,
		"formatDate":    formatDate,
		"categoryLabel": CategoryLabel,
		"seq":           seq,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Views{templates: tpl}, nil
}

// Render executes the named page into a buffer first so a failing template
// never leaves a half-written response.
func (v *Views) Render(w http.ResponseWriter, status int, name string, data Page) error {
	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Page is the data every page template receives. The layout reads Theme
// for the root element class and FavoritesCount for the header badge.
type Page struct {
	Title          string
	Theme          domain.Theme
	FavoritesCount int
	ReturnTo       string
	Data           any
}

// CardView is one product card of the list grid.
type CardView struct {
	ID            int
	Title         string
	Brand         string
	Category      string
	Thumbnail     string
	Price         float64
	OriginalPrice float64
	HasDiscount   bool
	Discount      float64
	Rating        float64
	Stock         int
	DateAdded     time.Time
	Favorite      bool
	ReturnTo      string
}

func newCardView(p domain.Product, favorite bool, returnTo string) CardView {
	return CardView{
		ID:            p.ID,
		Title:         p.Title,
		Brand:         p.Brand,
		Category:      p.Category,
		Thumbnail:     p.Thumbnail,
		Price:         p.Price,
		OriginalPrice: browse.OriginalPrice(p),
		HasDiscount:   browse.HasDiscount(p),
		Discount:      p.DiscountPercentage,
		Rating:        p.Rating,
		Stock:         p.Stock,
		DateAdded:     p.DateAdded,
		Favorite:      favorite,
		ReturnTo:      returnTo,
	}
}

type CategoryOption struct {
	Slug     string
	Label    string
	Selected bool
}

type PageLink struct {
	Page     int
	Ellipsis bool
	Current  bool
	URL      string
}

type ListPage struct {
	Status           browse.Status
	Error            string
	Query            string
	Category         string
	From             string
	To               string
	Categories       []CategoryOption
	Cards            []CardView
	Total            int
	HasActiveFilters bool
	Pagination       pagination.Pagination
	PageLinks        []PageLink
	PrevURL          string
	NextURL          string
	SkeletonCount    int
	DebounceMillis   int64
}

type ImageLink struct {
	URL    string
	Link   string
	Active bool
}

type DetailPage struct {
	Status        browse.Status
	Error         string
	Product       domain.Product
	ActiveImage   string
	Images        []ImageLink
	Favorite      bool
	HasDiscount   bool
	OriginalPrice float64
}

// CategoryLabel turns a category slug into a display title,
// "mens-shirts" into "Mens Shirts".
func CategoryLabel(slug string) string {
	if slug == "" || slug == domain.CategoryAll {
		return "All categories"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}

func categoryOptions(slugs []string, selected string) []CategoryOption {
	opts := make([]CategoryOption, 0, len(slugs)+1)
	opts = append(opts, CategoryOption{
		Slug:     domain.CategoryAll,
		Label:    CategoryLabel(domain.CategoryAll),
		Selected: selected == domain.CategoryAll,
	})
	for _, s := range slugs {
		opts = append(opts, CategoryOption{
			Slug:     s,
			Label:    CategoryLabel(s),
			Selected: s == selected,
		})
	}
	return opts
}

// listURL builds the list location for f on page. Empty values are left
// out so the default listing stays at "/".
func listURL(f domain.Filters, page int) string {
	q := url.Values{}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Category != "" && f.Category != domain.CategoryAll {
		q.Set("category", f.Category)
	}
	if !f.Dates.From.IsZero() {
		q.Set("from", f.Dates.From.Format(dateLayout))
	}
	if !f.Dates.To.IsZero() {
		q.Set("to", f.Dates.To.Format(dateLayout))
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

func newListPage(
	s browse.ListSnapshot, favorites interface{ Contains(int) bool }, returnTo string,
) ListPage {
	f := domain.Filters{Query: s.Query, Category: s.Category, Dates: s.Dates}

	cards := make([]CardView, 0, len(s.Items))
	for _, p := range s.Items {
		cards = append(cards, newCardView(p, favorites.Contains(p.ID), returnTo))
	}

	links := make([]PageLink, 0, len(s.Window))
	for _, it := range s.Window {
		l := PageLink{Page: it.Page, Ellipsis: it.Ellipsis, Current: it.Current}
		if !it.Ellipsis {
			l.URL = listURL(f, it.Page)
		}
		links = append(links, l)
	}

	lp := ListPage{
		Status:           s.Status,
		Error:            s.Error,
		Query:            s.PendingQuery,
		Category:         s.Category,
		From:             formatInputDate(s.Dates.From),
		To:               formatInputDate(s.Dates.To),
		Categories:       categoryOptions(s.Categories, s.Category),
		Cards:            cards,
		Total:            s.Total,
		HasActiveFilters: s.HasActiveFilters,
		Pagination:       s.Pagination,
		PageLinks:        links,
		SkeletonCount:    s.Pagination.PageSize,
		DebounceMillis:   s.SearchDebounce.Milliseconds(),
	}
	if s.Pagination.HasPrev() {
		lp.PrevURL = listURL(f, s.Pagination.Page-1)
	}
	if s.Pagination.HasNext() {
		lp.NextURL = listURL(f, s.Pagination.Page+1)
	}
	return lp
}

func newDetailPage(v *browse.DetailView) DetailPage {
	p := v.Product()
	d := DetailPage{
		Status:        v.Status(),
		Error:         v.Error(),
		Product:       p,
		ActiveImage:   v.ActiveImage(),
		Favorite:      v.IsFavorite(),
		HasDiscount:   v.HasDiscount(),
		OriginalPrice: v.OriginalPrice(),
	}
	selected := v.SelectedImage()
	for i, img := range p.Images {
		d.Images = append(d.Images, ImageLink{
			URL:    img,
			Link:   fmt.Sprintf("/products/%d?image=%d", p.ID, i),
			Active: i == selected,
		})
	}
	return d
}

func formatPrice(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func formatInputDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}
