package httphandler

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/niksmo/producthub/internal/core/browse"
	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/pkg/pagination"
)

var ErrInvalidQuery = errors.New("invalid query")

// listQuery is the query string of the list page and the products API.
type listQuery struct {
	Q        string `validate:"max=100"`
	Category string `validate:"omitempty,max=64,excludesall=/?#"`
	From     string `validate:"omitempty,datetime=2006-01-02"`
	To       string `validate:"omitempty,datetime=2006-01-02"`
	Page     string `validate:"omitempty,number,max=6"`
}

func parseListQuery(
	v *validator.Validate, q url.Values, loc *time.Location,
) (f domain.Filters, page int, err error) {
	lq := listQuery{
		Q:        strings.TrimSpace(q.Get("q")),
		Category: q.Get("category"),
		From:     q.Get("from"),
		To:       q.Get("to"),
		Page:     q.Get("page"),
	}
	if err := v.Struct(lq); err != nil {
		return domain.Filters{}, 0, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	f = domain.Filters{Query: lq.Q, Category: lq.Category}
	if lq.From != "" {
		f.Dates.From, _ = time.ParseInLocation(dateLayout, lq.From, loc)
	}
	if lq.To != "" {
		f.Dates.To, _ = time.ParseInLocation(dateLayout, lq.To, loc)
	}

	page = 1
	if lq.Page != "" {
		page, _ = strconv.Atoi(lq.Page)
	}
	return f.Normalized(), page, nil
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

type (
	productResponse struct {
		ID                 int      `json:"id"`
		Title              string   `json:"title"`
		Description        string   `json:"description"`
		Price              float64  `json:"price"`
		OriginalPrice      float64  `json:"originalPrice"`
		DiscountPercentage float64  `json:"discountPercentage"`
		Rating             float64  `json:"rating"`
		Stock              int      `json:"stock"`
		Brand              string   `json:"brand,omitempty"`
		Category           string   `json:"category"`
		Thumbnail          string   `json:"thumbnail"`
		Images             []string `json:"images"`
		DateAdded          string   `json:"dateAdded,omitempty"`
		Favorite           bool     `json:"favorite"`
	}

	pageItemResponse struct {
		Page     int  `json:"page,omitempty"`
		Ellipsis bool `json:"ellipsis,omitempty"`
		Current  bool `json:"current,omitempty"`
	}

	productsResponse struct {
		Products   []productResponse  `json:"products"`
		Total      int                `json:"total"`
		Page       int                `json:"page"`
		PageSize   int                `json:"pageSize"`
		TotalPages int                `json:"totalPages"`
		Pages      []pageItemResponse `json:"pages"`
	}

	categoryResponse struct {
		Slug  string `json:"slug"`
		Label string `json:"label"`
	}

	favoritesResponse struct {
		Favorites []int `json:"favorites"`
	}

	favoriteToggleResponse struct {
		ID       int  `json:"id"`
		Favorite bool `json:"favorite"`
	}

	themeResponse struct {
		Theme domain.Theme `json:"theme"`
	}
)

// isoMillis is the wire format of dateAdded.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func toProductResponse(p domain.Product, favorite bool) productResponse {
	r := productResponse{
		ID:                 p.ID,
		Title:              p.Title,
		Description:        p.Description,
		Price:              p.Price,
		OriginalPrice:      browse.OriginalPrice(p),
		DiscountPercentage: p.DiscountPercentage,
		Rating:             p.Rating,
		Stock:              p.Stock,
		Brand:              p.Brand,
		Category:           p.Category,
		Thumbnail:          p.Thumbnail,
		Images:             p.Images,
		Favorite:           favorite,
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	if p.HasDate() {
		r.DateAdded = p.DateAdded.UTC().Format(isoMillis)
	}
	return r
}

func newFavoritesResponse(ids []int) favoritesResponse {
	if ids == nil {
		ids = []int{}
	}
	return favoritesResponse{Favorites: ids}
}

func toProductsResponse(
	s browse.ListSnapshot, favorites interface{ Contains(int) bool },
) productsResponse {
	r := productsResponse{
		Products:   make([]productResponse, 0, len(s.Items)),
		Total:      s.Total,
		Page:       s.Pagination.Page,
		PageSize:   s.Pagination.PageSize,
		TotalPages: s.Pagination.TotalPages,
		Pages:      toPageItems(s.Window),
	}
	for _, p := range s.Items {
		r.Products = append(r.Products, toProductResponse(p, favorites.Contains(p.ID)))
	}
	return r
}

func toPageItems(items []pagination.Item) []pageItemResponse {
	out := make([]pageItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, pageItemResponse(it))
	}
	return out
}
