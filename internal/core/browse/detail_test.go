package browse_test

import (
	"context"
	"errors"
	"testing"

	"github.com/niksmo/producthub/internal/core/browse"
	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductLoader struct {
	mock.Mock
}

func (m *MockProductLoader) Product(ctx context.Context, id int) (domain.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(domain.Product)
	return p, args.Error(1)
}

type setFavorites map[int]bool

func (s setFavorites) Contains(id int) bool { return s[id] }

func (s setFavorites) Toggle(_ context.Context, id int) (bool, error) {
	s[id] = !s[id]
	return s[id], nil
}

var mascara = domain.Product{
	ID:                 1,
	Title:              "Essence Mascara",
	Price:              100,
	DiscountPercentage: 20,
	Thumbnail:          "thumb.png",
	Images:             []string{"a.png", "b.png", "c.png"},
}

func TestDetailViewLoad(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		l := new(MockProductLoader)
		l.On("Product", mock.Anything, 1).Return(mascara, nil).Once()

		v := browse.NewDetailView(l, setFavorites{})
		assert.Equal(t, browse.StatusLoading, v.Status())

		require.NoError(t, v.Load(t.Context(), 1))
		assert.Equal(t, browse.StatusReady, v.Status())
		assert.Equal(t, "Essence Mascara", v.Product().Title)
		assert.Equal(t, "a.png", v.ActiveImage())
		l.AssertExpectations(t)
	})

	t.Run("Failed", func(t *testing.T) {
		l := new(MockProductLoader)
		l.On("Product", mock.Anything, 404).Return(nil, errors.New("not found"))

		v := browse.NewDetailView(l, setFavorites{})
		require.Error(t, v.Load(t.Context(), 404))
		assert.Equal(t, browse.StatusFailed, v.Status())
		assert.Equal(t, browse.DetailErrorMessage, v.Error())
		assert.False(t, v.IsFavorite())
	})
}

func TestDetailViewGallery(t *testing.T) {
	l := new(MockProductLoader)
	l.On("Product", mock.Anything, 1).Return(mascara, nil)
	noImages := mascara
	noImages.ID = 2
	noImages.Images = nil
	l.On("Product", mock.Anything, 2).Return(noImages, nil)

	v := browse.NewDetailView(l, setFavorites{})
	require.NoError(t, v.Load(t.Context(), 1))

	v.SelectImage(2)
	assert.Equal(t, "c.png", v.ActiveImage())

	v.SelectImage(3)
	assert.Equal(t, 2, v.SelectedImage(), "out of range is ignored")
	v.SelectImage(-1)
	assert.Equal(t, "c.png", v.ActiveImage())

	require.NoError(t, v.Load(t.Context(), 2))
	assert.Zero(t, v.SelectedImage(), "selection resets on load")
	assert.Equal(t, "thumb.png", v.ActiveImage())
}

func TestDetailViewFavorite(t *testing.T) {
	l := new(MockProductLoader)
	l.On("Product", mock.Anything, 1).Return(mascara, nil)

	favs := setFavorites{}
	v := browse.NewDetailView(l, favs)

	_, err := v.ToggleFavorite(t.Context())
	require.Error(t, err, "nothing loaded yet")

	require.NoError(t, v.Load(t.Context(), 1))
	assert.False(t, v.IsFavorite())

	fav, err := v.ToggleFavorite(t.Context())
	require.NoError(t, err)
	assert.True(t, fav)
	assert.True(t, v.IsFavorite())

	fav, err = v.ToggleFavorite(t.Context())
	require.NoError(t, err)
	assert.False(t, fav)
	assert.False(t, favs[1])
}

func TestOriginalPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		discount float64
		want     float64
		has      bool
	}{
		{"Twenty", 100, 20, 125, true},
		{"RoundsToCents", 9.99, 7.17, 10.76, true},
		{"NoDiscount", 9.99, 0, 9.99, false},
		{"Full", 10, 100, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.Product{Price: tt.price, DiscountPercentage: tt.discount}
			assert.Equal(t, tt.has, browse.HasDiscount(p))
			assert.InDelta(t, tt.want, browse.OriginalPrice(p), 1e-9)
		})
	}
}
