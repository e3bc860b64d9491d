package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/niksmo/producthub/internal/core/port"
)

type favoritesState struct {
	Favorites []int `json:"favorites"`
}

// Favorites is the persisted set of favorite product ids.
//
// Every mutation re-reads the stored set, applies the change to it and
// writes it back before it returns. A failed write is reported, the
// in-memory state keeps the change.
type Favorites struct {
	mu   sync.RWMutex
	kv   port.KV
	key  string
	ids  []int
	subs subscribers[[]int]
}

// LoadFavorites rehydrates the set stored under key. It never fails:
// a missing or malformed document yields the empty set.
func LoadFavorites(ctx context.Context, kv port.KV, key string) *Favorites {
	var state favoritesState
	load(ctx, kv, key, &state)

	return &Favorites{kv: kv, key: key, ids: dedupe(state.Favorites)}
}

func (f *Favorites) Contains(id int) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Contains(f.ids, id)
}

// IDs returns the favorites in insertion order.
func (f *Favorites) IDs() []int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.ids)
}

func (f *Favorites) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

func (f *Favorites) Add(ctx context.Context, id int) error {
	const op = "Favorites.Add"

	_, err := f.mutate(ctx, func(ids []int) ([]int, bool) {
		if slices.Contains(ids, id) {
			return ids, false
		}
		return append(ids, id), true
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (f *Favorites) Remove(ctx context.Context, id int) error {
	const op = "Favorites.Remove"

	_, err := f.mutate(ctx, func(ids []int) ([]int, bool) {
		i := slices.Index(ids, id)
		if i < 0 {
			return ids, false
		}
		return slices.Delete(ids, i, i+1), true
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Toggle removes id when present and adds it otherwise. It reports whether
// id is a favorite afterwards.
func (f *Favorites) Toggle(ctx context.Context, id int) (bool, error) {
	const op = "Favorites.Toggle"

	ids, err := f.mutate(ctx, func(ids []int) ([]int, bool) {
		if i := slices.Index(ids, id); i >= 0 {
			return slices.Delete(ids, i, i+1), true
		}
		return append(ids, id), true
	})
	on := slices.Contains(ids, id)
	if err != nil {
		return on, fmt.Errorf("%s: %w", op, err)
	}
	return on, nil
}

// mutate applies fn to the latest stored set and writes the result back.
// The stored document is re-read under the key lock, so instances loaded
// by concurrent requests of one client do not overwrite each other.
func (f *Favorites) mutate(
	ctx context.Context, fn func(ids []int) ([]int, bool),
) ([]int, error) {
	unlock := keyLocks.lock(f.key)
	defer unlock()

	f.mu.Lock()
	f.refreshLocked(ctx)
	next, changed := fn(slices.Clone(f.ids))
	if !changed {
		ids := slices.Clone(f.ids)
		f.mu.Unlock()
		return ids, nil
	}
	f.ids = next
	err := save(ctx, f.kv, f.key, favoritesState{Favorites: next})
	ids := slices.Clone(next)
	f.mu.Unlock()

	f.subs.notify(ids)
	return ids, err
}

// refreshLocked replaces the in-memory set with the stored one. When the
// storage cannot be read the in-memory set is kept.
func (f *Favorites) refreshLocked(ctx context.Context) {
	const op = "Favorites.refresh"

	state := favoritesState{Favorites: f.ids}
	if err := read(ctx, f.kv, f.key, &state); err != nil {
		slog.Warn("failed to refresh favorites, using loaded set",
			"op", op, "key", f.key, "err", err,
		)
		return
	}
	f.ids = dedupe(state.Favorites)
}

func dedupe(in []int) []int {
	ids := make([]int, 0, len(in))
	for _, id := range in {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Subscribe registers fn to receive the set after every change.
func (f *Favorites) Subscribe(fn func([]int)) (unsubscribe func()) {
	return f.subs.add(fn)
}

