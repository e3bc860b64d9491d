package domain

import "time"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Opposite returns the other theme value. Invalid values flip to dark
// the same way light does.
func (t Theme) Opposite() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type ClientEventKind string

const (
	EventSearch         ClientEventKind = "search"
	EventProductView    ClientEventKind = "product_view"
	EventFavoriteToggle ClientEventKind = "favorite_toggle"
	EventThemeChange    ClientEventKind = "theme_change"
)

// A ClientEvent describes a user action sent to the analytics stream.
type ClientEvent struct {
	Kind       ClientEventKind
	ClientID   string
	ProductID  int
	Query      string
	Category   string
	Value      string
	OccurredAt time.Time
}
