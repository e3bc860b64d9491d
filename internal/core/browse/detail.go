package browse

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
)

const DetailErrorMessage = "Failed to load product. Please try again."

// FavoriteToggler is the part of the favorites store the detail page uses.
type FavoriteToggler interface {
	Contains(id int) bool
	Toggle(ctx context.Context, id int) (bool, error)
}

// DetailView is the state of one product page.
type DetailView struct {
	mu        sync.Mutex
	loader    port.ProductLoader
	favorites FavoriteToggler

	status   Status
	errMsg   string
	product  domain.Product
	selected int
}

func NewDetailView(loader port.ProductLoader, favorites FavoriteToggler) *DetailView {
	return &DetailView{
		loader:    loader,
		favorites: favorites,
		status:    StatusLoading,
	}
}

func (v *DetailView) Load(ctx context.Context, id int) error {
	const op = "DetailView.Load"

	v.mu.Lock()
	v.status = StatusLoading
	v.errMsg = ""
	v.selected = 0
	v.mu.Unlock()

	p, err := v.loader.Product(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.status = StatusFailed
		v.errMsg = DetailErrorMessage
		v.product = domain.Product{}
		return fmt.Errorf("%s: %w", op, err)
	}
	v.product = p
	v.status = StatusReady
	return nil
}

func (v *DetailView) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *DetailView) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

func (v *DetailView) Product() domain.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.product
}

// SelectImage makes image i active. Out of range indexes are ignored.
func (v *DetailView) SelectImage(i int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i >= 0 && i < len(v.product.Images) {
		v.selected = i
	}
}

func (v *DetailView) SelectedImage() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// ActiveImage is the selected gallery image, or the thumbnail when the
// product has no images.
func (v *DetailView) ActiveImage() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.product.Images) == 0 {
		return v.product.Thumbnail
	}
	return v.product.Images[v.selected]
}

func (v *DetailView) IsFavorite() bool {
	v.mu.Lock()
	id := v.product.ID
	v.mu.Unlock()
	return id != 0 && v.favorites.Contains(id)
}

// ToggleFavorite flips the loaded product in the favorites store and
// reports whether it is a favorite afterwards.
func (v *DetailView) ToggleFavorite(ctx context.Context) (bool, error) {
	const op = "DetailView.ToggleFavorite"

	v.mu.Lock()
	id := v.product.ID
	v.mu.Unlock()
	if id == 0 {
		return false, fmt.Errorf("%s: no product loaded", op)
	}

	fav, err := v.favorites.Toggle(ctx, id)
	if err != nil {
		return fav, fmt.Errorf("%s: %w", op, err)
	}
	return fav, nil
}

func (v *DetailView) HasDiscount() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return HasDiscount(v.product)
}

func (v *DetailView) OriginalPrice() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return OriginalPrice(v.product)
}

func HasDiscount(p domain.Product) bool {
	return p.DiscountPercentage > 0 && p.DiscountPercentage < 100
}

// OriginalPrice is the price before discount, rounded to cents.
func OriginalPrice(p domain.Product) float64 {
	if !HasDiscount(p) {
		return p.Price
	}
	return math.Round(p.Price/(1-p.DiscountPercentage/100)*100) / 100
}
