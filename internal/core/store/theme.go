package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
)

var ErrInvalidTheme = errors.New("invalid theme")

type themeState struct {
	Theme domain.Theme `json:"theme"`
}

// Theme is the persisted light/dark preference, light by default.
type Theme struct {
	mu    sync.RWMutex
	kv    port.KV
	key   string
	theme domain.Theme
	subs  subscribers[domain.Theme]
}

func LoadTheme(ctx context.Context, kv port.KV, key string) *Theme {
	state := themeState{Theme: domain.ThemeLight}
	load(ctx, kv, key, &state)
	if !state.Theme.Valid() {
		state.Theme = domain.ThemeLight
	}
	return &Theme{kv: kv, key: key, theme: state.Theme}
}

func (t *Theme) Theme() domain.Theme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.theme
}

func (t *Theme) SetTheme(ctx context.Context, v domain.Theme) error {
	const op = "Theme.SetTheme"

	if !v.Valid() {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidTheme, v)
	}

	_, err := t.mutate(ctx, func(domain.Theme) domain.Theme { return v })
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ToggleTheme flips the stored theme and returns the new value.
func (t *Theme) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	const op = "Theme.ToggleTheme"

	next, err := t.mutate(ctx, domain.Theme.Opposite)
	if err != nil {
		return next, fmt.Errorf("%s: %w", op, err)
	}
	return next, nil
}

// mutate derives the new theme from the stored one under the key lock and
// writes it back.
func (t *Theme) mutate(
	ctx context.Context, fn func(domain.Theme) domain.Theme,
) (domain.Theme, error) {
	const op = "Theme.refresh"

	unlock := keyLocks.lock(t.key)
	defer unlock()

	t.mu.Lock()
	state := themeState{Theme: t.theme}
	if err := read(ctx, t.kv, t.key, &state); err != nil {
		slog.Warn("failed to refresh theme, using loaded value",
			"op", op, "key", t.key, "err", err,
		)
	}
	if !state.Theme.Valid() {
		state.Theme = t.theme
	}

	next := fn(state.Theme)
	changed := t.theme != next
	t.theme = next
	err := save(ctx, t.kv, t.key, themeState{Theme: next})
	t.mu.Unlock()

	if changed {
		t.subs.notify(next)
	}
	return next, err
}

// Subscribe registers fn to receive the theme whenever it changes.
func (t *Theme) Subscribe(fn func(domain.Theme)) (unsubscribe func()) {
	return t.subs.add(fn)
}
