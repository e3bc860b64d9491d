package catalog

import (
	"encoding/json"

	"github.com/niksmo/producthub/internal/core/domain"
)

type (
	product struct {
		ID                 int      `json:"id"`
		Title              string   `json:"title"`
		Description        string   `json:"description"`
		Price              float64  `json:"price"`
		DiscountPercentage float64  `json:"discountPercentage"`
		Rating             float64  `json:"rating"`
		Stock              int      `json:"stock"`
		Brand              string   `json:"brand"`
		Category           string   `json:"category"`
		Thumbnail          string   `json:"thumbnail"`
		Images             []string `json:"images"`
	}

	productsPage struct {
		Products []product `json:"products"`
		Total    int       `json:"total"`
		Skip     int       `json:"skip"`
		Limit    int       `json:"limit"`
	}

	categoryObject struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
)

func (p product) toDomain() domain.Product {
	return domain.Product{
		ID:                 p.ID,
		Title:              p.Title,
		Description:        p.Description,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		Rating:             p.Rating,
		Stock:              p.Stock,
		Brand:              p.Brand,
		Category:           p.Category,
		Thumbnail:          p.Thumbnail,
		Images:             p.Images,
	}
}

// parseCategories accepts both the legacy list of names and the list of
// {slug, name, url} objects. Other elements are skipped.
func parseCategories(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var name string
		if err := json.Unmarshal(r, &name); err == nil {
			if name != "" {
				out = append(out, name)
			}
			continue
		}

		var obj categoryObject
		if err := json.Unmarshal(r, &obj); err == nil && obj.Slug != "" {
			out = append(out, obj.Slug)
		}
	}
	return out
}
