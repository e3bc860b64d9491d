package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func render(items []Item) (out []any) {
	for _, it := range items {
		if it.Ellipsis {
			out = append(out, "...")
			continue
		}
		out = append(out, it.Page)
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("TotalPages", func(t *testing.T) {
		p := New(1, 10, 23)
		assert.Equal(t, 3, p.TotalPages)
		assert.False(t, p.HasPrev())
		assert.True(t, p.HasNext())
	})

	t.Run("ClampHigh", func(t *testing.T) {
		p := New(9, 10, 23)
		assert.Equal(t, 3, p.Page)
		assert.True(t, p.HasPrev())
		assert.False(t, p.HasNext())
	})

	t.Run("ClampLow", func(t *testing.T) {
		assert.Equal(t, 1, New(-4, 10, 23).Page)
	})

	t.Run("Empty", func(t *testing.T) {
		p := New(3, 10, 0)
		assert.Equal(t, 0, p.TotalPages)
		assert.Equal(t, 1, p.Page)
		assert.False(t, p.HasPrev())
		assert.False(t, p.HasNext())
	})

	t.Run("DefaultPageSize", func(t *testing.T) {
		assert.Equal(t, DefaultPageSize, New(1, 0, 5).PageSize)
	})
}

func TestSlice(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	assert.Equal(t, items[0:10], Slice(items, New(1, 10, len(items))))
	assert.Equal(t, items[20:23], Slice(items, New(3, 10, len(items))))
	assert.Empty(t, Slice([]int{}, New(1, 10, 0)))
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		want           []any
	}{
		{"ThreePagesMiddle", 2, 3, []any{1, 2, 3}},
		{"FirstOfTen", 1, 10, []any{1, 2, "...", 10}},
		{"MiddleOfTen", 5, 10, []any{1, "...", 4, 5, 6, "...", 10}},
		{"LastOfTen", 10, 10, []any{1, "...", 9, 10}},
		{"NearStart", 3, 10, []any{1, 2, 3, 4, "...", 10}},
		{"SinglePage", 1, 1, []any{1}},
		{"NoPages", 1, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(Window(tt.current, tt.total)))
		})
	}

	t.Run("MarksCurrent", func(t *testing.T) {
		for _, it := range Window(2, 3) {
			assert.Equal(t, it.Page == 2, it.Current)
		}
	})
}
