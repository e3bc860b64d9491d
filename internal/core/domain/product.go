package domain

import "time"

// CategoryAll is the category selector value meaning no category restriction.
const CategoryAll = "all"

type (
	Product struct {
		ID                 int
		Title              string
		Description        string
		Price              float64
		DiscountPercentage float64
		Rating             float64
		Stock              int
		Brand              string
		Category           string
		Thumbnail          string
		Images             []string

		// DateAdded is synthesized locally, the zero value means absent.
		DateAdded time.Time
	}

	Catalog struct {
		Products   []Product
		Categories []string
		FetchedAt  time.Time
	}
)

func (p Product) HasDate() bool {
	return !p.DateAdded.IsZero()
}

// A DateRange holds optional calendar dates, zero values are unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Filters is the user input of the product list.
type Filters struct {
	Query    string
	Category string
	Dates    DateRange
}

// Normalized returns filters with an empty category replaced by [CategoryAll].
func (f Filters) Normalized() Filters {
	if f.Category == "" {
		f.Category = CategoryAll
	}
	return f
}
